// Package logstore defines the durable, bucketed log-record store: the
// repository producers append records to and the uploader drains buckets
// from. See sqlitestore and memstore for the two reference backings.
package logstore

// Record is an immutable, opaque byte blob produced by the application.
// Once constructed a Record is never mutated; it is owned by exactly one
// bucket until that bucket is committed or its contents are rolled back.
type Record struct {
	Data []byte
}

// NewRecord wraps data as a Record. The caller must not mutate data after
// this call; Record does not copy it.
func NewRecord(data []byte) Record {
	return Record{Data: data}
}

// Size returns the length of the record's data in bytes.
func (r Record) Size() int {
	return len(r.Data)
}
