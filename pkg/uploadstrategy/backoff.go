package uploadstrategy

import "time"

// backoff is exponential with a ceiling, reset to its initial value by
// OnSuccess. Shared by every concrete strategy so backoff behavior is
// consistent regardless of the trigger that chose UPLOAD.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

func newBackoff(initial, max time.Duration) *backoff {
	if initial <= 0 {
		initial = time.Second
	}
	if max < initial {
		max = initial
	}
	return &backoff{initial: initial, max: max, current: initial}
}

// next doubles the current delay, caps it at max, and returns it.
func (b *backoff) next() time.Duration {
	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return b.current
}

func (b *backoff) reset() time.Duration {
	b.current = b.initial
	return b.current
}
