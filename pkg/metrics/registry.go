// Package metrics declares the observability surface for the store and
// controller packages as interfaces; callers that don't want
// metrics pass nil for zero overhead. pkg/metrics/prometheus supplies the
// Prometheus-backed implementation.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
)

// InitRegistry enables metrics collection and returns a fresh registry for
// the caller to expose (e.g. via promhttp.HandlerFor). Calling it again
// replaces the active registry; existing collectors registered against the
// old one are orphaned.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	registry = prometheus.NewRegistry()
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

// GetRegistry returns the active registry, or nil if InitRegistry was
// never called.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}
