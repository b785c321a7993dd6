package uploadstrategy

import (
	"time"

	"github.com/abohomol/kaa/pkg/logstore"
)

// RecordCountBased triggers UPLOAD once records_count crosses a fixed
// count, regardless of their total size or age.
type RecordCountBased struct {
	threshold uint64
	bo        *backoff
}

var _ Strategy = (*RecordCountBased)(nil)

// NewRecordCountBased returns a RecordCountBased strategy.
func NewRecordCountBased(threshold uint64, initialBackoff, maxBackoff time.Duration) *RecordCountBased {
	return &RecordCountBased{threshold: threshold, bo: newBackoff(initialBackoff, maxBackoff)}
}

func (s *RecordCountBased) Decide(status logstore.Status, now time.Time) Decision {
	if status.RecordsCount >= s.threshold {
		return UPLOAD
	}
	return NOOP
}

func (s *RecordCountBased) NextTickDelay() time.Duration { return s.bo.current }

func (s *RecordCountBased) OnSuccess() { s.bo.reset() }

func (s *RecordCountBased) OnFailure(reason error) time.Duration { return s.bo.next() }

func (s *RecordCountBased) OnTimeout(bucketID int64) time.Duration { return s.bo.next() }
