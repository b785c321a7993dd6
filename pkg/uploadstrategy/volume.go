package uploadstrategy

import (
	"time"

	"github.com/abohomol/kaa/pkg/logstore"
)

// VolumeBased triggers UPLOAD once consumed_volume crosses a byte
// threshold, regardless of record count or age.
type VolumeBased struct {
	threshold uint64
	bo        *backoff
}

var _ Strategy = (*VolumeBased)(nil)

// NewVolumeBased returns a VolumeBased strategy. initialBackoff and
// maxBackoff bound the delay returned after a failed or timed-out
// delivery.
func NewVolumeBased(threshold uint64, initialBackoff, maxBackoff time.Duration) *VolumeBased {
	return &VolumeBased{threshold: threshold, bo: newBackoff(initialBackoff, maxBackoff)}
}

func (s *VolumeBased) Decide(status logstore.Status, now time.Time) Decision {
	if status.ConsumedVolume >= s.threshold {
		return UPLOAD
	}
	return NOOP
}

func (s *VolumeBased) NextTickDelay() time.Duration { return s.bo.current }

func (s *VolumeBased) OnSuccess() { s.bo.reset() }

func (s *VolumeBased) OnFailure(reason error) time.Duration { return s.bo.next() }

func (s *VolumeBased) OnTimeout(bucketID int64) time.Duration { return s.bo.next() }
