// Package memstore is a non-persistent logstore.Store backing: all state
// lives in a single process's memory, in the shape of pkg/cache/memory's
// map-of-buffers-plus-mutex cache. It is meant for tests and for callers
// that accept losing unflushed records on process exit; a restart is
// indistinguishable from New, so the crash-recovery procedure sqlitestore
// implements has no counterpart here.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/abohomol/kaa/internal/logger"
	"github.com/abohomol/kaa/pkg/logstore"
	"github.com/abohomol/kaa/pkg/metrics"
)

var errClosed = errors.New("memstore: store is closed")

type bucketEntry struct {
	state   logstore.BucketState
	records []logstore.Record
	bytes   int
}

type pendingEntry struct {
	records uint32
	bytes   uint32
}

// Store is the in-memory logstore.Store implementation.
type Store struct {
	mu     sync.Mutex
	opts   logstore.Options
	closed bool

	buckets map[int64]*bucketEntry
	ids     []int64 // ascending, mirrors buckets' keys

	currentID       int64
	maxID           int64
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

// New creates an empty memstore.Store with a single FREE current bucket.
func New(opts logstore.Options) *Store {
	s := &Store{
		opts:    opts,
		buckets: make(map[int64]*bucketEntry),
		pending: make(map[int64]pendingEntry),
	}
	s.maxID = 1
	s.currentID = 1
	s.buckets[1] = &bucketEntry{state: logstore.BucketFree}
	s.ids = []int64{1}
	return s
}

func (s *Store) insertID(id int64) {
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
	s.ids = append(s.ids, 0)
	copy(s.ids[i+1:], s.ids[i:])
	s.ids[i] = id
}

func (s *Store) removeID(id int64) {
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
	if i < len(s.ids) && s.ids[i] == id {
		s.ids = append(s.ids[:i], s.ids[i+1:]...)
	}
}

// AddRecord implements logstore.Store.AddRecord.
func (s *Store) AddRecord(ctx context.Context, r logstore.Record) (logstore.BucketInfo, error) {
	if r.Size() > s.opts.MaxBucketBytes {
		return logstore.BucketInfo{}, logstore.NewTooLargeError(r.Size(), s.opts.MaxBucketBytes)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return logstore.BucketInfo{}, logstore.NewStorageError("add_record", errClosed)
	}

	cur, ok := s.buckets[s.currentID]
	rotated := false
	if !ok || cur.state != logstore.BucketFree ||
		len(cur.records)+1 > s.opts.MaxBucketRecords || cur.bytes+r.Size() > s.opts.MaxBucketBytes {
		s.maxID++
		s.currentID = s.maxID
		cur = &bucketEntry{state: logstore.BucketFree}
		s.buckets[s.currentID] = cur
		s.insertID(s.currentID)
		rotated = true
	}

	cur.records = append(cur.records, r)
	cur.bytes += r.Size()

	s.totalRecords++
	s.unmarkedRecords++
	s.consumedVolume += uint64(r.Size())

	logger.DebugCtx(ctx, "record appended",
		logger.BucketID(s.currentID), logger.RecordSize(r.Size()), logger.Rotated(rotated))

	if s.metrics != nil {
		s.metrics.RecordAppend(r.Size(), rotated)
		s.reportStatusLocked()
	}

	return logstore.BucketInfo{BucketID: s.currentID, LogsCount: uint32(len(cur.records))}, nil
}

// NextBucket implements logstore.Store.NextBucket.
func (s *Store) NextBucket(ctx context.Context) (*logstore.LogBucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	var found *bucketEntry
	for _, candidate := range s.ids {
		b := s.buckets[candidate]
		if b.state == logstore.BucketFree && len(b.records) > 0 {
			id, found = candidate, b
			break
		}
	}
	if found == nil {
		return nil, nil
	}

	found.state = logstore.BucketInUse
	recCount := uint32(len(found.records))
	byteCount := uint32(found.bytes)

	s.unmarkedRecords -= uint64(recCount)
	s.consumedVolume -= uint64(byteCount)
	s.pending[id] = pendingEntry{records: recCount, bytes: byteCount}

	if s.currentID == id {
		s.maxID++
		s.currentID = s.maxID
		s.buckets[s.currentID] = &bucketEntry{state: logstore.BucketFree}
		s.insertID(s.currentID)
	}

	recs := make([]logstore.Record, len(found.records))
	copy(recs, found.records)

	logger.DebugCtx(ctx, "bucket dispensed", logger.BucketID(id), logger.RecordsCount(uint64(len(recs))))

	if s.metrics != nil {
		s.metrics.RecordDispense(len(recs))
		s.reportStatusLocked()
	}

	return &logstore.LogBucket{BucketID: id, Records: recs}, nil
}

// RemoveBucket implements logstore.Store.RemoveBucket.
func (s *Store) RemoveBucket(ctx context.Context, bucketID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[bucketID]
	if !ok {
		return nil
	}
	s.totalRecords -= uint64(len(b.records))
	delete(s.buckets, bucketID)
	s.removeID(bucketID)
	delete(s.pending, bucketID)

	if s.metrics != nil {
		s.metrics.RecordCommit()
	}

	logger.DebugCtx(ctx, "bucket committed", logger.BucketID(bucketID))
	return nil
}

// RollbackBucket implements logstore.Store.RollbackBucket.
func (s *Store) RollbackBucket(ctx context.Context, bucketID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[bucketID]
	if !ok || b.state != logstore.BucketInUse {
		return nil
	}
	b.state = logstore.BucketFree

	if entry, ok := s.pending[bucketID]; ok {
		s.unmarkedRecords += uint64(entry.records)
		s.consumedVolume += uint64(entry.bytes)
		delete(s.pending, bucketID)
	} else {
		s.unmarkedRecords += uint64(len(b.records))
		s.consumedVolume += uint64(b.bytes)
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

// Close marks the store closed. Safe to call more than once; subsequent
// AddRecord calls fail with a StorageError.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
