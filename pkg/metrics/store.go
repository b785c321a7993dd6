package metrics

// StoreMetrics observes a logstore.Store. Pass nil to a Store's SetMetrics
// (or never call it) to disable collection with zero overhead.
type StoreMetrics interface {
	// RecordAppend is called after a successful AddRecord.
	RecordAppend(sizeBytes int, rotated bool)

	// RecordDispense is called after a successful NextBucket that
	// returned a bucket (not after a none-available result).
	RecordDispense(recordsCount int)

	// RecordCommit is called after RemoveBucket resolves a known bucket.
	RecordCommit()

	// RecordRollback is called after RollbackBucket resolves a bucket
	// that was IN_USE.
	RecordRollback()

	// SetStatus is called after any operation that changes
	// unmarked_records or consumed_volume.
	SetStatus(recordsCount, consumedVolumeBytes uint64)
}
