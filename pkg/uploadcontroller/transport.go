package uploadcontroller

import (
	"context"

	"github.com/abohomol/kaa/pkg/logstore"
)

// TransportResult is a delivery outcome for one dispensed bucket. A nil
// Err means the bucket was delivered; a non-nil Err means delivery
// failed for the given reason.
type TransportResult struct {
	BucketID int64
	Err      error
}

// Transport is the Controller's external collaborator: it accepts a
// dispensed bucket and asynchronously reports the outcome. Implementations
// may invoke the returned channel's send on any goroutine; the Controller
// reads it on its own.
type Transport interface {
	Send(ctx context.Context, bucket logstore.LogBucket) <-chan TransportResult
}
