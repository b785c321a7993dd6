package logstore

import "fmt"

// ErrorCode identifies the kind of failure a Store operation raised.
type ErrorCode int

const (
	// ErrTooLarge indicates a record's own size exceeds MaxBucketBytes.
	// Raised to the caller of AddRecord; never retried internally.
	ErrTooLarge ErrorCode = iota + 1

	// ErrStorage indicates the underlying persistent medium failed to
	// execute a statement. Raised from AddRecord; NextBucket, RemoveBucket
	// and RollbackBucket catch and log storage errors instead of
	// propagating them, so a single bad tick does not crash the uploader.
	ErrStorage

	// ErrNotFound indicates a bucket id unknown to the store. Remove and
	// Rollback treat this as success (idempotence); it is not normally
	// surfaced to callers.
	ErrNotFound
)

func (c ErrorCode) String() string {
	switch c {
	case ErrTooLarge:
		return "TooLarge"
	case ErrStorage:
		return "StorageError"
	case ErrNotFound:
		return "NotFound"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Error is a logstore error carrying its ErrorCode for errors.Is-style
// branching alongside a human-readable message.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is makes errors.Is(err, ErrTooLargeSentinel) (and the other sentinels
// below) work against a wrapped *Error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel values for errors.Is comparisons. Do not compare with ==; these
// only carry a code, wrapped errors carry a message alongside it.
var (
	ErrTooLargeSentinel = &Error{Code: ErrTooLarge}
	ErrStorageSentinel  = &Error{Code: ErrStorage}
	ErrNotFoundSentinel = &Error{Code: ErrNotFound}
)

// NewTooLargeError reports that a record exceeds the configured byte limit.
func NewTooLargeError(recordSize, maxBucketBytes int) error {
	return &Error{
		Code:    ErrTooLarge,
		Message: fmt.Sprintf("record of %d bytes exceeds max_bucket_bytes=%d", recordSize, maxBucketBytes),
	}
}

// NewStorageError wraps an underlying medium failure.
func NewStorageError(op string, cause error) error {
	return &Error{
		Code:    ErrStorage,
		Message: fmt.Sprintf("%s: %v", op, cause),
	}
}
