package logstore

// BucketState is the lifecycle state of a persisted bucket.
type BucketState int

const (
	// BucketFree marks a bucket eligible to be dispensed to the uploader.
	BucketFree BucketState = 0

	// BucketInUse marks a bucket currently handed to the uploader, awaiting
	// commit (RemoveBucket) or rollback (RollbackBucket).
	BucketInUse BucketState = 1
)

func (s BucketState) String() string {
	switch s {
	case BucketFree:
		return "FREE"
	case BucketInUse:
		return "IN_USE"
	default:
		return "UNKNOWN"
	}
}

// BucketInfo identifies a bucket and its record count after an insert,
// returned by AddRecord.
type BucketInfo struct {
	BucketID int64
	// LogsCount is size_in_records for the bucket after the insert that
	// produced this BucketInfo.
	LogsCount uint32
}

// LogBucket is a snapshot of a dispensed bucket's records, in insertion
// order, together with its identity. Its lifetime ends at RemoveBucket or
// RollbackBucket; until then the store retains the underlying rows.
type LogBucket struct {
	BucketID int64
	Records  []Record
}

// Status is the point-in-time pair of counters a Strategy consults:
// records sitting in FREE buckets and the bytes they occupy. The current
// bucket is itself FREE until dispensed, so its records are included;
// only a dispensed, not-yet-resolved (IN_USE) bucket is excluded.
type Status struct {
	RecordsCount   uint64
	ConsumedVolume uint64
}
