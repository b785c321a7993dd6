package uploadstrategy

import (
	"time"

	"github.com/abohomol/kaa/pkg/logstore"
)

// Periodic triggers UPLOAD once per period regardless of volume or
// record count. lastUploadTime is seeded at construction, matching the
// reference client: a store that never fills still uploads once per
// period.
type Periodic struct {
	period         time.Duration
	lastUploadTime time.Time
	bo             *backoff
}

var _ Strategy = (*Periodic)(nil)

// NewPeriodic returns a Periodic strategy whose clock starts now.
func NewPeriodic(period time.Duration, now time.Time, initialBackoff, maxBackoff time.Duration) *Periodic {
	return &Periodic{
		period:         period,
		lastUploadTime: now,
		bo:             newBackoff(initialBackoff, maxBackoff),
	}
}

func (s *Periodic) Decide(status logstore.Status, now time.Time) Decision {
	if !now.Before(s.lastUploadTime.Add(s.period)) {
		s.lastUploadTime = now
		return UPLOAD
	}
	return NOOP
}

func (s *Periodic) NextTickDelay() time.Duration {
	due := s.lastUploadTime.Add(s.period)
	now := time.Now()
	if due.Before(now) {
		return 0
	}
	return due.Sub(now)
}

func (s *Periodic) OnSuccess() { s.bo.reset() }

func (s *Periodic) OnFailure(reason error) time.Duration { return s.bo.next() }

func (s *Periodic) OnTimeout(bucketID int64) time.Duration { return s.bo.next() }
