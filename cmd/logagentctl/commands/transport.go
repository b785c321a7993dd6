package commands

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/abohomol/kaa/internal/logger"
	"github.com/abohomol/kaa/pkg/logstore"
	"github.com/abohomol/kaa/pkg/uploadcontroller"
)

// demoTransport stands in for a real uplink: it logs every bucket handed
// to it and resolves with a configurable failure rate and latency, so the
// controller's InFlight/timeout/backoff paths can be exercised without a
// network endpoint.
type demoTransport struct {
	failureRate float64
	latency     time.Duration
	rng         *rand.Rand
}

var _ uploadcontroller.Transport = (*demoTransport)(nil)

func newDemoTransport(failureRate float64, latency time.Duration) *demoTransport {
	return &demoTransport{
		failureRate: failureRate,
		latency:     latency,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (t *demoTransport) Send(ctx context.Context, bucket logstore.LogBucket) <-chan uploadcontroller.TransportResult {
	ch := make(chan uploadcontroller.TransportResult, 1)

	go func() {
		select {
		case <-time.After(t.latency):
		case <-ctx.Done():
			return
		}

		if t.rng.Float64() < t.failureRate {
			logger.WarnCtx(ctx, "demo transport dropping bucket",
				logger.BucketID(bucket.BucketID), logger.RecordsCount(uint64(len(bucket.Records))))
			ch <- uploadcontroller.TransportResult{
				BucketID: bucket.BucketID,
				Err:      fmt.Errorf("demo transport: simulated delivery failure"),
			}
			return
		}

		logger.InfoCtx(ctx, "demo transport delivered bucket",
			logger.BucketID(bucket.BucketID), logger.RecordsCount(uint64(len(bucket.Records))))
		ch <- uploadcontroller.TransportResult{BucketID: bucket.BucketID}
	}()

	return ch
}
