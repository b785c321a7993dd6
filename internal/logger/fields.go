package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the store, strategy and
// controller packages. Keep log statements using these keys consistent so
// downstream log aggregation can query by them.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// ========================================================================
	// Bucket store
	// ========================================================================
	KeyBucketID      = "bucket_id"
	KeyOperation     = "operation" // add_record, next_bucket, remove_bucket, rollback_bucket
	KeyRecordSize    = "record_size"
	KeyRecordsCount  = "records_count"
	KeyConsumedBytes = "consumed_bytes"
	KeyMaxBytes      = "max_bytes"
	KeyMaxRecords    = "max_records"
	KeyRotated       = "rotated"

	// ========================================================================
	// Upload strategy / controller
	// ========================================================================
	KeyDecision    = "decision" // NOOP, UPLOAD, CLEANUP
	KeyAttempt     = "attempt"
	KeyMaxRetries  = "max_retries"
	KeyBackoff     = "backoff"
	KeyTimeoutAt   = "timeout_at"
	KeyReason      = "reason"
	KeyPendingSize = "pending_size"

	// ========================================================================
	// Operation metadata
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
)

// BucketID returns a slog.Attr for a bucket identifier.
func BucketID(id int64) slog.Attr {
	return slog.Int64(KeyBucketID, id)
}

// Operation returns a slog.Attr for the store/controller operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// RecordSize returns a slog.Attr for a record's size in bytes.
func RecordSize(n int) slog.Attr {
	return slog.Int(KeyRecordSize, n)
}

// RecordsCount returns a slog.Attr for a count of records.
func RecordsCount(n uint64) slog.Attr {
	return slog.Uint64(KeyRecordsCount, n)
}

// ConsumedBytes returns a slog.Attr for consumed volume in bytes.
func ConsumedBytes(n uint64) slog.Attr {
	return slog.Uint64(KeyConsumedBytes, n)
}

// Rotated returns a slog.Attr indicating whether a bucket rotation occurred.
func Rotated(rotated bool) slog.Attr {
	return slog.Bool(KeyRotated, rotated)
}

// Decision returns a slog.Attr for a strategy decision.
func Decision(d string) slog.Attr {
	return slog.String(KeyDecision, d)
}

// Attempt returns a slog.Attr for a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// Backoff returns a slog.Attr for a computed backoff duration, in milliseconds.
func Backoff(ms int64) slog.Attr {
	return slog.Int64(KeyBackoff, ms)
}

// Reason returns a slog.Attr for a failure reason.
func Reason(reason string) slog.Attr {
	return slog.String(KeyReason, reason)
}

// DurationMs returns a slog.Attr for an operation duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error, or a zero Attr if err is nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
