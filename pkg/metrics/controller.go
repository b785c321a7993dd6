package metrics

import "time"

// ControllerMetrics observes an uploadcontroller.Controller. Pass nil to
// disable collection with zero overhead.
type ControllerMetrics interface {
	// RecordDecision is called after every Tick with the strategy's
	// verdict: "NOOP", "UPLOAD", or "CLEANUP".
	RecordDecision(decision string)

	// RecordDelivery is called when a dispatched bucket resolves, with
	// outcome "delivered", "failed", or "timeout" and the time spent
	// in flight.
	RecordDelivery(outcome string, inFlight time.Duration)

	// SetPendingCount is called whenever the controller's pending map
	// changes size.
	SetPendingCount(n int)
}
