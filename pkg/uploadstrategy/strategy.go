// Package uploadstrategy decides when a Controller should drain the log
// store: on a volume threshold, a record-count threshold, a fixed period,
// or a composite of all three plus a hard-cap cleanup trigger.
package uploadstrategy

import (
	"time"

	"github.com/abohomol/kaa/pkg/logstore"
)

// Decision is a strategy's verdict for the current tick.
type Decision int

const (
	// NOOP means nothing to do; the Controller reschedules per
	// NextTickDelay.
	NOOP Decision = iota
	// UPLOAD means the Controller should dispense and send FREE buckets
	// until none remain.
	UPLOAD
	// CLEANUP means consumed_volume is over the hard cap; the Controller
	// should discard the oldest FREE buckets down to a soft target
	// instead of sending them.
	CLEANUP
)

func (d Decision) String() string {
	switch d {
	case NOOP:
		return "NOOP"
	case UPLOAD:
		return "UPLOAD"
	case CLEANUP:
		return "CLEANUP"
	default:
		return "UNKNOWN"
	}
}

// Strategy is pure with respect to the Store: it only reads status and
// mutates its own fields (last_upload_time, backoff state). The
// Controller holds exactly one Strategy and calls it serially.
type Strategy interface {
	// Decide inspects the current status and returns a verdict.
	Decide(status logstore.Status, now time.Time) Decision

	// NextTickDelay is consulted after every tick, whatever its decision,
	// to schedule the next one.
	NextTickDelay() time.Duration

	// OnSuccess is called after a bucket is delivered; resets backoff.
	OnSuccess()

	// OnFailure is called after a delivery fails; returns the next
	// backoff delay.
	OnFailure(reason error) time.Duration

	// OnTimeout is called when a dispensed bucket's delivery deadline
	// passes with no callback; returns the next backoff delay.
	OnTimeout(bucketID int64) time.Duration
}

// CleanupTarget is implemented by strategies that issue CLEANUP
// decisions, giving the Controller the consumed_volume to drain down to.
// Strategies that never return CLEANUP need not implement it.
type CleanupTarget interface {
	CleanupTarget() uint64
}
