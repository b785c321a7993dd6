// Package uploadcontroller drives a logstore.Store through an
// uploadstrategy.Strategy and a Transport: it decides when to drain
// buckets, hands them to the transport, and resolves each dispensed
// bucket to delivered, failed, or timed out.
package uploadcontroller

import (
	"context"
	"sync"
	"time"

	"github.com/abohomol/kaa/internal/logger"
	"github.com/abohomol/kaa/pkg/logstore"
	"github.com/abohomol/kaa/pkg/metrics"
	"github.com/abohomol/kaa/pkg/uploadstrategy"
)

const defaultSweepInterval = 5 * time.Second

// pendingDispatch tracks a dispatched bucket awaiting resolution.
type pendingDispatch struct {
	deadline     time.Time
	dispatchedAt time.Time
}

// Config configures a Controller.
type Config struct {
	// Timeout bounds how long a dispensed bucket waits for a transport
	// result before the timeout sweep rolls it back.
	Timeout time.Duration
	// SweepInterval is how often pending deadlines are checked. Defaults
	// to 5s.
	SweepInterval time.Duration
	// Metrics collects controller observability. Nil disables collection.
	Metrics metrics.ControllerMetrics
}

// Controller owns a Store, a Strategy and a Transport, and runs the
// per-bucket state machine Free -> InFlight -> {Delivered |
// FailedOrTimedOut}. Every bucket starts Free, including after a process
// restart (the Store's own startup recovery marks everything Free again).
type Controller struct {
	store     logstore.Store
	strategy  uploadstrategy.Strategy
	transport Transport
	timeout   time.Duration
	sweep     time.Duration

	mu      sync.Mutex
	pending map[int64]pendingDispatch

	metrics metrics.ControllerMetrics

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a Controller. Call Start to begin the background tick/sweep
// loop.
func New(store logstore.Store, strategy uploadstrategy.Strategy, transport Transport, cfg Config) *Controller {
	sweep := cfg.SweepInterval
	if sweep <= 0 {
		sweep = defaultSweepInterval
	}
	return &Controller{
		store:     store,
		strategy:  strategy,
		transport: transport,
		timeout:   cfg.Timeout,
		sweep:     sweep,
		pending:   make(map[int64]pendingDispatch),
		metrics:   cfg.Metrics,
		wake:      make(chan struct{}, 1),
	}
}

// setPendingCountLocked reports the pending map's size to metrics. The
// caller must hold c.mu.
func (c *Controller) setPendingCountLocked() {
	if c.metrics != nil {
		c.metrics.SetPendingCount(len(c.pending))
	}
}

// Start begins the background loop: it ticks the strategy on its own
// schedule (and immediately whenever Log or a transport result requests
// it) and periodically sweeps pending deadlines for timeouts.
func (c *Controller) Start(ctx context.Context) {
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.run()
}

// Stop cancels the background loop and waits for in-flight tick/sweep
// work to finish. It does not wait for outstanding transport deliveries
// and does not roll them back: their watcher goroutines return on
// cancellation without resolving them, so those buckets stay IN_USE in
// the Store until its startup recovery marks them FREE on the next open.
func (c *Controller) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

func (c *Controller) run() {
	defer c.wg.Done()

	sweepTicker := time.NewTicker(c.sweep)
	defer sweepTicker.Stop()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.wake:
			drainTimer(timer)
			timer.Reset(0)
		case <-timer.C:
			if err := c.Tick(c.ctx); err != nil {
				logger.ErrorCtx(c.ctx, "tick failed", logger.Err(err))
			}
			timer.Reset(c.strategy.NextTickDelay())
		case <-sweepTicker.C:
			c.sweepTimeouts(c.ctx)
		}
	}
}

func drainTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func (c *Controller) requestTick() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Log appends record to the Store. On success it wakes the background
// loop so a just-crossed UPLOAD threshold is acted on without waiting for
// the next scheduled tick.
func (c *Controller) Log(ctx context.Context, record logstore.Record) (logstore.BucketInfo, error) {
	info, err := c.store.AddRecord(ctx, record)
	if err != nil {
		return info, err
	}
	c.requestTick()
	return info, nil
}

// Tick runs one decision cycle: query the strategy, and act on UPLOAD or
// CLEANUP. Safe to call directly (e.g. from tests) without Start.
func (c *Controller) Tick(ctx context.Context) error {
	status, err := c.store.Status(ctx)
	if err != nil {
		return err
	}

	decision := c.strategy.Decide(status, time.Now())
	logger.DebugCtx(ctx, "tick", logger.Decision(decision.String()))
	if c.metrics != nil {
		c.metrics.RecordDecision(decision.String())
	}

	switch decision {
	case uploadstrategy.UPLOAD:
		return c.drainUpload(ctx)
	case uploadstrategy.CLEANUP:
		return c.drainCleanup(ctx)
	default:
		return nil
	}
}

// drainUpload dispenses every FREE bucket and hands each to the
// transport, repeating the rotation/dispense loop until the store is drained.
func (c *Controller) drainUpload(ctx context.Context) error {
	for {
		bucket, err := c.store.NextBucket(ctx)
		if err != nil {
			return err
		}
		if bucket == nil {
			return nil
		}
		c.dispatch(ctx, *bucket)
	}
}

func (c *Controller) dispatch(ctx context.Context, bucket logstore.LogBucket) {
	now := time.Now()
	c.mu.Lock()
	c.pending[bucket.BucketID] = pendingDispatch{deadline: now.Add(c.timeout), dispatchedAt: now}
	c.setPendingCountLocked()
	c.mu.Unlock()

	logger.InfoCtx(ctx, "bucket dispatched",
		logger.BucketID(bucket.BucketID), logger.RecordsCount(uint64(len(bucket.Records))))

	resultCh := c.transport.Send(ctx, bucket)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		select {
		case result, ok := <-resultCh:
			if !ok {
				return
			}
			c.onTransportResult(ctx, result)
		case <-ctx.Done():
			// leave it in pending; the timeout sweep (or a future
			// restart's recovery pass) resolves it.
		}
	}()
}

// drainCleanup discards the oldest FREE buckets down to the strategy's
// cleanup target.
func (c *Controller) drainCleanup(ctx context.Context) error {
	var target uint64
	if ct, ok := c.strategy.(uploadstrategy.CleanupTarget); ok {
		target = ct.CleanupTarget()
	}

	for {
		status, err := c.store.Status(ctx)
		if err != nil {
			return err
		}
		if status.ConsumedVolume <= target {
			return nil
		}

		bucket, err := c.store.NextBucket(ctx)
		if err != nil {
			return err
		}
		if bucket == nil {
			return nil
		}

		if err := c.store.RemoveBucket(ctx, bucket.BucketID); err != nil {
			logger.ErrorCtx(ctx, "cleanup remove_bucket failed", logger.BucketID(bucket.BucketID), logger.Err(err))
			return err
		}
		logger.InfoCtx(ctx, "bucket discarded by cleanup", logger.BucketID(bucket.BucketID))
	}
}

func (c *Controller) onTransportResult(ctx context.Context, result TransportResult) {
	c.mu.Lock()
	dispatch, known := c.pending[result.BucketID]
	delete(c.pending, result.BucketID)
	c.setPendingCountLocked()
	c.mu.Unlock()

	if !known {
		// already reclaimed by the timeout sweep; do not double-resolve.
		return
	}

	if result.Err == nil {
		c.onDelivered(ctx, result.BucketID, dispatch.dispatchedAt)
	} else {
		c.onFailed(ctx, result.BucketID, result.Err, dispatch.dispatchedAt)
	}
}

// OnDelivered resolves bucketID as delivered: Delivered is the terminal
// state in the per-bucket machine. Exported so a Transport that does not
// use the channel-based Send contract can still report results directly.
func (c *Controller) OnDelivered(ctx context.Context, bucketID int64) {
	c.mu.Lock()
	dispatch := c.pending[bucketID]
	delete(c.pending, bucketID)
	c.setPendingCountLocked()
	c.mu.Unlock()
	c.onDelivered(ctx, bucketID, dispatch.dispatchedAt)
}

// OnFailed resolves bucketID as failed: InFlight -> Free (rolled back).
func (c *Controller) OnFailed(ctx context.Context, bucketID int64, reason error) {
	c.mu.Lock()
	dispatch := c.pending[bucketID]
	delete(c.pending, bucketID)
	c.setPendingCountLocked()
	c.mu.Unlock()
	c.onFailed(ctx, bucketID, reason, dispatch.dispatchedAt)
}

func (c *Controller) onDelivered(ctx context.Context, bucketID int64, dispatchedAt time.Time) {
	if err := c.store.RemoveBucket(ctx, bucketID); err != nil {
		logger.ErrorCtx(ctx, "remove_bucket failed after delivery", logger.BucketID(bucketID), logger.Err(err))
	}
	c.strategy.OnSuccess()
	logger.InfoCtx(ctx, "bucket delivered", logger.BucketID(bucketID))
	if c.metrics != nil {
		c.metrics.RecordDelivery("delivered", inFlightDuration(dispatchedAt))
	}
	c.requestTick()
}

func (c *Controller) onFailed(ctx context.Context, bucketID int64, reason error, dispatchedAt time.Time) {
	if err := c.store.RollbackBucket(ctx, bucketID); err != nil {
		logger.ErrorCtx(ctx, "rollback_bucket failed", logger.BucketID(bucketID), logger.Err(err))
	}
	delay := c.strategy.OnFailure(reason)
	logger.WarnCtx(ctx, "bucket delivery failed",
		logger.BucketID(bucketID), logger.Reason(reason.Error()), logger.Backoff(delay.Milliseconds()))
	if c.metrics != nil {
		c.metrics.RecordDelivery("failed", inFlightDuration(dispatchedAt))
	}
}

func inFlightDuration(dispatchedAt time.Time) time.Duration {
	if dispatchedAt.IsZero() {
		return 0
	}
	return time.Since(dispatchedAt)
}

// sweepTimeouts reclaims pending entries whose deadline passed with no
// transport callback, converting them to the failed path. This resolves
// a dispatch whose transport callback never arrives.
func (c *Controller) sweepTimeouts(ctx context.Context) {
	now := time.Now()
	expired := make(map[int64]time.Time)

	c.mu.Lock()
	for id, dispatch := range c.pending {
		if now.After(dispatch.deadline) {
			expired[id] = dispatch.dispatchedAt
			delete(c.pending, id)
		}
	}
	c.setPendingCountLocked()
	c.mu.Unlock()

	for id, dispatchedAt := range expired {
		if err := c.store.RollbackBucket(ctx, id); err != nil {
			logger.ErrorCtx(ctx, "rollback_bucket failed on timeout sweep", logger.BucketID(id), logger.Err(err))
		}
		delay := c.strategy.OnTimeout(id)
		logger.WarnCtx(ctx, "bucket delivery timed out", logger.BucketID(id), logger.Backoff(delay.Milliseconds()))
		if c.metrics != nil {
			c.metrics.RecordDelivery("timeout", inFlightDuration(dispatchedAt))
		}
	}
}
