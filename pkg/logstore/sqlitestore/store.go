package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/abohomol/kaa/internal/logger"
	"github.com/abohomol/kaa/pkg/logstore"
	"github.com/abohomol/kaa/pkg/metrics"
)

// pendingEntry is the session-memory side table for a dispensed bucket:
// the counters a dispensed-but-not-yet-resolved bucket contributed to
// unmarkedRecords/consumedVolume, cached so RollbackBucket can restore
// them without re-reading the (now IN_USE) row.
type pendingEntry struct {
	records uint32
	bytes   uint32
}

// Store is the gorm/glebarez-sqlite backed logstore.Store. A single mutex
// serializes every public operation; the persistent medium's own
// transactions guarantee that a crash mid-operation never leaves counters
// and rows disagreeing with each other.
type Store struct {
	db   *gorm.DB
	opts logstore.Options

	mu              sync.Mutex
	currentBucketID int64
	maxBucketID     int64
	totalRecords    uint64
	unmarkedRecords uint64
	consumedVolume  uint64
	pending         map[int64]pendingEntry

	metrics metrics.StoreMetrics
}

var _ logstore.Store = (*Store)(nil)

// SetMetrics attaches a metrics collector. Pass nil (the default) for no
// collection. Not safe to call concurrently with Store operations.
func (s *Store) SetMetrics(m metrics.StoreMetrics) {
	s.metrics = m
}

func (s *Store) reportStatusLocked() {
	if s.metrics != nil {
		s.metrics.SetStatus(s.unmarkedRecords, s.consumedVolume)
	}
}

// Open opens (creating if absent) the SQLite-backed store at
// opts.StorageLocation, runs crash recovery, and returns a ready-to-use
// Store.
func Open(opts logstore.Options) (*Store, error) {
	if opts.MaxBucketBytes <= 0 {
		return nil, errors.New("sqlitestore: MaxBucketBytes must be positive")
	}
	if opts.MaxBucketRecords <= 0 {
		return nil, errors.New("sqlitestore: MaxBucketRecords must be positive")
	}

	dsn := buildDSN(opts.StorageLocation, opts.Flags)
	return open(dsn, opts)
}

func open(dsn string, opts logstore.Options) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, logstore.NewStorageError("open", err)
	}

	if err := db.AutoMigrate(&bucketRow{}, &recordRow{}); err != nil {
		return nil, logstore.NewStorageError("migrate", err)
	}

	s := &Store{
		db:      db,
		opts:    opts,
		pending: make(map[int64]pendingEntry),
	}

	if err := s.recover(context.Background()); err != nil {
		return nil, logstore.NewStorageError("recover", err)
	}

	return s, nil
}

// recover implements the three-step startup procedure: truncate
// if the configured limits are now stricter than any persisted bucket,
// otherwise recompute counters and mark everything FREE. Either way, the
// first append after recovery rotates to a brand new bucket rather than
// resuming one that was already on disk before the restart.
func (s *Store) recover(ctx context.Context) error {
	var maxRecords, maxBytes sql.NullInt64
	if err := s.db.WithContext(ctx).
		Raw("SELECT MAX(size_in_records), MAX(size_in_bytes) FROM buckets").
		Row().Scan(&maxRecords, &maxBytes); err != nil {
		return err
	}

	tightened := (maxRecords.Valid && int(maxRecords.Int64) > s.opts.MaxBucketRecords) ||
		(maxBytes.Valid && int(maxBytes.Int64) > s.opts.MaxBucketBytes)

	resumedExisting := false

	if tightened {
		logger.Warn("reopening with stricter limits than a persisted bucket, truncating store",
			logger.KeyMaxRecords, s.opts.MaxBucketRecords,
			logger.KeyMaxBytes, s.opts.MaxBucketBytes)
		// keep ids monotonic across the truncation: the next bucket is one
		// past the largest id the dropped data held.
		var prevMaxID sql.NullInt64
		if err := s.db.WithContext(ctx).
			Raw("SELECT MAX(outer_id) FROM buckets").
			Row().Scan(&prevMaxID); err != nil {
			return err
		}
		if err := s.db.WithContext(ctx).Exec("DELETE FROM records").Error; err != nil {
			return err
		}
		if err := s.db.WithContext(ctx).Exec("DELETE FROM buckets").Error; err != nil {
			return err
		}
		s.totalRecords, s.unmarkedRecords, s.consumedVolume = 0, 0, 0
		s.maxBucketID = prevMaxID.Int64
	} else {
		var totalRecords, consumedVolume sql.NullInt64
		if err := s.db.WithContext(ctx).
			Raw("SELECT SUM(size_in_records), SUM(size_in_bytes) FROM buckets").
			Row().Scan(&totalRecords, &consumedVolume); err != nil {
			return err
		}
		s.totalRecords = uint64(totalRecords.Int64)
		s.consumedVolume = uint64(consumedVolume.Int64)
		s.unmarkedRecords = s.totalRecords

		// every persisted bucket is FREE regardless of its prior state.
		if err := s.db.WithContext(ctx).Model(&bucketRow{}).
			Where("state = ?", int(logstore.BucketInUse)).
			Update("state", int(logstore.BucketFree)).Error; err != nil {
			return err
		}

		var maxID sql.NullInt64
		if err := s.db.WithContext(ctx).
			Raw("SELECT MAX(outer_id) FROM buckets").
			Row().Scan(&maxID); err != nil {
			return err
		}
		s.maxBucketID = maxID.Int64
		resumedExisting = maxID.Valid && maxID.Int64 > 0
	}

	if s.maxBucketID == 0 {
		s.maxBucketID = 1
		if err := s.db.WithContext(ctx).Create(&bucketRow{OuterID: 1, State: int(logstore.BucketFree)}).Error; err != nil {
			return err
		}
	}

	if resumedExisting {
		// Don't resume appends into a bucket that was already dispense-eligible
		// before the restart; the first post-recovery AddRecord rotates to a
		// fresh bucket because this id doesn't exist yet.
		s.currentBucketID = s.maxBucketID + 1
	} else {
		s.currentBucketID = s.maxBucketID
	}
	s.pending = make(map[int64]pendingEntry)
	return nil
}

// AddRecord implements logstore.Store.AddRecord; see the rotation
// algorithm.
func (s *Store) AddRecord(ctx context.Context, r logstore.Record) (logstore.BucketInfo, error) {
	if r.Size() > s.opts.MaxBucketBytes {
		return logstore.BucketInfo{}, logstore.NewTooLargeError(r.Size(), s.opts.MaxBucketBytes)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var cur bucketRow
	err := s.db.WithContext(ctx).Where("outer_id = ?", s.currentBucketID).First(&cur).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return logstore.BucketInfo{}, logstore.NewStorageError("add_record: load current bucket", err)
	}
	needsRotate := errors.Is(err, gorm.ErrRecordNotFound) ||
		cur.State != int(logstore.BucketFree) ||
		int(cur.SizeInRecords)+1 > s.opts.MaxBucketRecords ||
		int(cur.SizeInBytes)+r.Size() > s.opts.MaxBucketBytes

	var bucketID int64
	var newCount uint32
	rotated := false

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if needsRotate {
			bucketID = s.maxBucketID + 1
			if err := tx.Create(&bucketRow{OuterID: bucketID, State: int(logstore.BucketFree)}).Error; err != nil {
				return err
			}
			rotated = true
		} else {
			bucketID = s.currentBucketID
		}

		if err := tx.Create(&recordRow{OuterBucketID: bucketID, LogData: r.Data}).Error; err != nil {
			return err
		}

		if err := tx.Model(&bucketRow{}).Where("outer_id = ?", bucketID).
			Updates(map[string]any{
				"size_in_records": gorm.Expr("size_in_records + 1"),
				"size_in_bytes":   gorm.Expr("size_in_bytes + ?", r.Size()),
			}).Error; err != nil {
			return err
		}

		var updated bucketRow
		if err := tx.Where("outer_id = ?", bucketID).First(&updated).Error; err != nil {
			return err
		}
		newCount = updated.SizeInRecords
		return nil
	})
	if txErr != nil {
		return logstore.BucketInfo{}, logstore.NewStorageError("add_record", txErr)
	}

	if rotated {
		s.maxBucketID = bucketID
		s.currentBucketID = bucketID
	}
	s.totalRecords++
	s.unmarkedRecords++
	s.consumedVolume += uint64(r.Size())

	logger.DebugCtx(ctx, "record appended",
		logger.BucketID(bucketID), logger.RecordSize(r.Size()), logger.Rotated(rotated))

	if s.metrics != nil {
		s.metrics.RecordAppend(r.Size(), rotated)
		s.reportStatusLocked()
	}

	return logstore.BucketInfo{BucketID: bucketID, LogsCount: newCount}, nil
}

// NextBucket implements logstore.Store.NextBucket. A storage fault here is
// logged and absorbed rather than returned, so a bad tick cannot crash the
// uploader; callers see it the same as "no bucket available".
func (s *Store) NextBucket(ctx context.Context) (*logstore.LogBucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var row bucketRow
	var records []recordRow

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("state = ? AND size_in_records > 0", int(logstore.BucketFree)).
			Order("outer_id asc").First(&row).Error; err != nil {
			return err
		}
		if err := tx.Where("outer_bucket_id = ?", row.OuterID).
			Order("record_id asc").Find(&records).Error; err != nil {
			return err
		}
		return tx.Model(&bucketRow{}).Where("outer_id = ?", row.OuterID).
			Update("state", int(logstore.BucketInUse)).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.ErrorCtx(ctx, "next_bucket failed", logger.Err(err))
		return nil, nil
	}

	s.unmarkedRecords -= uint64(row.SizeInRecords)
	s.consumedVolume -= uint64(row.SizeInBytes)
	s.pending[row.OuterID] = pendingEntry{records: row.SizeInRecords, bytes: row.SizeInBytes}

	// We just dispensed the current bucket; rotate so future appends
	// don't land in the now-IN_USE bucket.
	if s.currentBucketID == row.OuterID {
		next := s.maxBucketID + 1
		if err := s.db.WithContext(ctx).Create(&bucketRow{OuterID: next, State: int(logstore.BucketFree)}).Error; err != nil {
			logger.ErrorCtx(ctx, "post-dispense rotation failed", logger.Err(err))
		} else {
			s.maxBucketID = next
			s.currentBucketID = next
		}
	}

	recs := make([]logstore.Record, len(records))
	for i, rr := range records {
		recs[i] = logstore.Record{Data: rr.LogData}
	}

	logger.DebugCtx(ctx, "bucket dispensed", logger.BucketID(row.OuterID), logger.RecordsCount(uint64(len(recs))))

	if s.metrics != nil {
		s.metrics.RecordDispense(len(recs))
		s.reportStatusLocked()
	}

	return &logstore.LogBucket{BucketID: row.OuterID, Records: recs}, nil
}

// RemoveBucket implements logstore.Store.RemoveBucket. Idempotent: an
// unknown id is treated as success.
func (s *Store) RemoveBucket(ctx context.Context, bucketID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found bool
	var recordCount uint32

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row bucketRow
		if err := tx.Where("outer_id = ?", bucketID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				found = false
				return nil
			}
			return err
		}
		found = true
		recordCount = row.SizeInRecords

		if err := tx.Where("outer_bucket_id = ?", bucketID).Delete(&recordRow{}).Error; err != nil {
			return err
		}
		return tx.Delete(&row).Error
	})
	if err != nil {
		logger.ErrorCtx(ctx, "remove_bucket failed", logger.BucketID(bucketID), logger.Err(err))
		return nil
	}

	if found {
		s.totalRecords -= uint64(recordCount)
		delete(s.pending, bucketID)
		if s.metrics != nil {
			s.metrics.RecordCommit()
		}
	}
	logger.DebugCtx(ctx, "bucket committed", logger.BucketID(bucketID))
	return nil
}

// RollbackBucket implements logstore.Store.RollbackBucket. Idempotent: a
// bucket already FREE, or an unknown id, is a no-op.
func (s *Store) RollbackBucket(ctx context.Context, bucketID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.WithContext(ctx).Model(&bucketRow{}).
		Where("outer_id = ? AND state = ?", bucketID, int(logstore.BucketInUse)).
		Update("state", int(logstore.BucketFree))
	if res.Error != nil {
		logger.ErrorCtx(ctx, "rollback_bucket failed", logger.BucketID(bucketID), logger.Err(res.Error))
		return nil
	}
	if res.RowsAffected == 0 {
		return nil
	}

	if entry, ok := s.pending[bucketID]; ok {
		s.unmarkedRecords += uint64(entry.records)
		s.consumedVolume += uint64(entry.bytes)
		delete(s.pending, bucketID)
	} else {
		var row bucketRow
		if err := s.db.WithContext(ctx).Where("outer_id = ?", bucketID).First(&row).Error; err == nil {
			s.unmarkedRecords += uint64(row.SizeInRecords)
			s.consumedVolume += uint64(row.SizeInBytes)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordRollback()
		s.reportStatusLocked()
	}

	logger.DebugCtx(ctx, "bucket rolled back", logger.BucketID(bucketID))
	return nil
}

// Status implements logstore.Store.Status.
func (s *Store) Status(ctx context.Context) (logstore.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return logstore.Status{
		RecordsCount:   s.unmarkedRecords,
		ConsumedVolume: s.consumedVolume,
	}, nil
}

// Close releases the underlying database handle. Safe to call more than
// once.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil
	}
	return sqlDB.Close()
}
