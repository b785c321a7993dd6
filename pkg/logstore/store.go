package logstore

import "context"

// Store is the durable, bucketed log-record repository. Implementations
// must keep their counters equal to the sum over their matching buckets,
// keep every bucket within the configured size limits, hand out strictly
// monotonic bucket ids across restarts, and leave every bucket FREE
// immediately after a restart.
//
// A single exclusive lock (or equivalent serialization point, such as a
// single-writer transactional medium) guards every public operation;
// implementations do not support cooperative suspension mid-operation.
type Store interface {
	// AddRecord appends r to the current bucket, rotating a new current
	// bucket first if the append would exceed MaxBucketBytes or
	// MaxBucketRecords. Returns ErrTooLarge if r.Size() alone exceeds
	// MaxBucketBytes.
	AddRecord(ctx context.Context, r Record) (BucketInfo, error)

	// NextBucket atomically selects the FREE bucket with the smallest id
	// among those holding at least one record, marks it IN_USE, and returns
	// a snapshot of its records in insertion order. Empty FREE buckets are
	// skipped; returns (nil, nil) when no non-empty FREE bucket exists.
	NextBucket(ctx context.Context) (*LogBucket, error)

	// RemoveBucket deletes the bucket and all its records. Idempotent: an
	// unknown id is a no-op, not an error.
	RemoveBucket(ctx context.Context, bucketID int64) error

	// RollbackBucket returns the bucket to FREE, restoring the counters
	// NextBucket decremented. Idempotent: a bucket already FREE, or an
	// unknown id, is a no-op.
	RollbackBucket(ctx context.Context, bucketID int64) error

	// Status returns a point-in-time read of the FREE-bucket counters.
	Status(ctx context.Context) (Status, error)

	// Close releases the handle to the persistent medium. Safe to call
	// more than once.
	Close() error
}
