// Package sqlitestore is the persistent, transactional logstore.Store
// backing. It uses gorm over glebarez/sqlite (pure Go, no cgo) the same
// way the control plane store does, and maps directly onto the reference
// schema.
package sqlitestore

// bucketRow is the persisted bucket row.
//
//	(inner_id PK auto-increment, outer_id NOT NULL, size_in_records DEFAULT 0,
//	 size_in_bytes DEFAULT 0, state DEFAULT 0)
type bucketRow struct {
	InnerID       int64 `gorm:"column:inner_id;primaryKey;autoIncrement"`
	OuterID       int64 `gorm:"column:outer_id;not null;uniqueIndex:idx_buckets_outer_id"`
	SizeInRecords uint32 `gorm:"column:size_in_records;default:0"`
	SizeInBytes   uint32 `gorm:"column:size_in_bytes;default:0"`
	State         int    `gorm:"column:state;default:0"`
}

func (bucketRow) TableName() string { return "buckets" }

// recordRow is the persisted record row.
//
//	(record_id PK auto-increment, outer_bucket_id, log_data BLOB)
type recordRow struct {
	RecordID      int64  `gorm:"column:record_id;primaryKey;autoIncrement"`
	OuterBucketID int64  `gorm:"column:outer_bucket_id;index:idx_records_outer_bucket_id"`
	LogData       []byte `gorm:"column:log_data"`
}

func (recordRow) TableName() string { return "records" }
