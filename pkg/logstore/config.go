package logstore

// OptimizationFlags enumerates the optional tunables a Store adapter may
// honor. Any subset is legal; the zero value (all false) is the safe
// default. Named booleans avoid a magic bitmask.
type OptimizationFlags struct {
	// RelaxedDurability disables fsync-equivalent durability on commit
	// (sqlitestore: PRAGMA synchronous=OFF).
	RelaxedDurability bool

	// InMemoryJournal keeps the journal in RAM instead of on disk
	// (sqlitestore: PRAGMA journal_mode=MEMORY).
	InMemoryJournal bool

	// InMemoryScratch keeps temporary/scratch state in RAM
	// (sqlitestore: PRAGMA temp_store=MEMORY).
	InMemoryScratch bool

	// SuppressChangeCounts skips change-count bookkeeping
	// (sqlitestore: PRAGMA count_changes=OFF).
	SuppressChangeCounts bool
}

// Options configures a Store. It is a plain struct, not a file-backed
// config loader: configuration loading is an external collaborator per
// the store's scope, referenced only by interface. cmd/logagentctl builds
// an Options value from its viper-loaded config file, one layer up.
type Options struct {
	// MaxBucketBytes is the maximum total size_in_bytes for any one
	// bucket. Must be positive.
	MaxBucketBytes int

	// MaxBucketRecords is the maximum size_in_records for any one bucket.
	// Must be positive.
	MaxBucketRecords int

	// StorageLocation is the path (or adapter-defined equivalent) of the
	// persistent backing. Ignored by memstore.
	StorageLocation string

	// Flags selects adapter-specific optimizations. The empty value is
	// the safe default.
	Flags OptimizationFlags
}

// DefaultOptions returns conservative defaults: generous size limits and
// no optimization flags enabled.
func DefaultOptions() Options {
	return Options{
		MaxBucketBytes:   1 << 20, // 1 MiB
		MaxBucketRecords: 256,
		StorageLocation:  "logstore.db",
		Flags:            OptimizationFlags{},
	}
}
