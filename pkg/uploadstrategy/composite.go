package uploadstrategy

import (
	"sync"
	"time"

	"github.com/abohomol/kaa/pkg/logstore"
)

// CompositeConfig configures Composite's four triggers.
type CompositeConfig struct {
	// VolumeThreshold triggers UPLOAD once consumed_volume crosses it.
	VolumeThreshold uint64
	// RecordCountThreshold triggers UPLOAD once records_count crosses it.
	RecordCountThreshold uint64
	// MaxOldestRecordAge triggers UPLOAD once the oldest unmarked record
	// has waited this long. Zero disables the age trigger.
	MaxOldestRecordAge time.Duration
	// HardCapVolume triggers CLEANUP once consumed_volume reaches it.
	HardCapVolume uint64
	// SoftTargetVolume is the consumed_volume the Controller's CLEANUP
	// loop drains down to.
	SoftTargetVolume uint64
}

// Composite combines volume, record-count and age-of-oldest-record
// triggers into UPLOAD, and a hard-cap trigger into CLEANUP. It is the
// default strategy: a store left alone still uploads within
// MaxOldestRecordAge even if it never fills.
type Composite struct {
	cfg CompositeConfig
	bo  *backoff

	mu           sync.Mutex
	hasOldest    bool
	oldestSeenAt time.Time
}

var _ Strategy = (*Composite)(nil)
var _ CleanupTarget = (*Composite)(nil)

// NewComposite returns a Composite strategy.
func NewComposite(cfg CompositeConfig, initialBackoff, maxBackoff time.Duration) *Composite {
	return &Composite{cfg: cfg, bo: newBackoff(initialBackoff, maxBackoff)}
}

func (s *Composite) Decide(status logstore.Status, now time.Time) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status.RecordsCount == 0 {
		s.hasOldest = false
		return NOOP
	}
	if !s.hasOldest {
		s.hasOldest = true
		s.oldestSeenAt = now
	}

	if s.cfg.HardCapVolume > 0 && status.ConsumedVolume >= s.cfg.HardCapVolume {
		return CLEANUP
	}

	ageTriggered := s.cfg.MaxOldestRecordAge > 0 && now.Sub(s.oldestSeenAt) >= s.cfg.MaxOldestRecordAge
	if (s.cfg.VolumeThreshold > 0 && status.ConsumedVolume >= s.cfg.VolumeThreshold) ||
		(s.cfg.RecordCountThreshold > 0 && status.RecordsCount >= s.cfg.RecordCountThreshold) ||
		ageTriggered {
		s.hasOldest = false
		return UPLOAD
	}

	return NOOP
}

func (s *Composite) NextTickDelay() time.Duration { return s.bo.current }

func (s *Composite) OnSuccess() { s.bo.reset() }

func (s *Composite) OnFailure(reason error) time.Duration { return s.bo.next() }

func (s *Composite) OnTimeout(bucketID int64) time.Duration { return s.bo.next() }

// CleanupTarget implements uploadstrategy.CleanupTarget.
func (s *Composite) CleanupTarget() uint64 { return s.cfg.SoftTargetVolume }
