package commands

import (
	"fmt"
	"time"

	"github.com/abohomol/kaa/pkg/logstore"
	"github.com/abohomol/kaa/pkg/logstore/memstore"
	"github.com/abohomol/kaa/pkg/logstore/sqlitestore"
	"github.com/abohomol/kaa/pkg/metrics"
	metricsprom "github.com/abohomol/kaa/pkg/metrics/prometheus"
	"github.com/abohomol/kaa/pkg/uploadcontroller"
	"github.com/abohomol/kaa/pkg/uploadstrategy"
)

// agent bundles the store, strategy and controller a command operates on.
type agent struct {
	store      logstore.Store
	strategy   uploadstrategy.Strategy
	controller *uploadcontroller.Controller
}

func buildStore(cfg Config) (logstore.Store, error) {
	opts := logstore.Options{
		MaxBucketBytes:   cfg.Store.MaxBucketBytes,
		MaxBucketRecords: cfg.Store.MaxBucketRecords,
		StorageLocation:  cfg.Store.Path,
		Flags: logstore.OptimizationFlags{
			RelaxedDurability:    cfg.Store.RelaxedDurability,
			InMemoryJournal:      cfg.Store.InMemoryJournal,
			InMemoryScratch:      cfg.Store.InMemoryScratch,
			SuppressChangeCounts: cfg.Store.SuppressChangeCounts,
		},
	}

	switch cfg.Store.Backend {
	case "memory":
		return memstore.New(opts), nil
	case "sqlite", "":
		return sqlitestore.Open(opts)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func buildStrategy(cfg Config, now time.Time) (uploadstrategy.Strategy, error) {
	s := cfg.Strategy
	switch s.Kind {
	case "volume":
		return uploadstrategy.NewVolumeBased(s.VolumeThreshold, s.InitialBackoff, s.MaxBackoff), nil
	case "recordcount":
		return uploadstrategy.NewRecordCountBased(s.RecordCountThreshold, s.InitialBackoff, s.MaxBackoff), nil
	case "periodic":
		return uploadstrategy.NewPeriodic(s.Period, now, s.InitialBackoff, s.MaxBackoff), nil
	case "composite", "":
		return uploadstrategy.NewComposite(uploadstrategy.CompositeConfig{
			VolumeThreshold:      s.VolumeThreshold,
			RecordCountThreshold: s.RecordCountThreshold,
			MaxOldestRecordAge:   s.MaxOldestRecordAge,
			HardCapVolume:        s.HardCapVolume,
			SoftTargetVolume:     s.SoftTargetVolume,
		}, s.InitialBackoff, s.MaxBackoff), nil
	default:
		return nil, fmt.Errorf("unknown strategy kind %q", s.Kind)
	}
}

// buildAgent wires a Store, Strategy and Controller from cfg. transport is
// the caller's choice: a demoTransport for start/simulate, or nil when the
// caller only needs the store and strategy (no controller is built then).
func buildAgent(cfg Config, transport uploadcontroller.Transport) (*agent, error) {
	store, err := buildStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		if sm := metricsprom.NewStoreMetrics(); sm != nil {
			if s, ok := store.(interface {
				SetMetrics(metrics.StoreMetrics)
			}); ok {
				s.SetMetrics(sm)
			}
		}
	}

	strategy, err := buildStrategy(cfg, time.Now())
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &agent{store: store, strategy: strategy}

	if transport != nil {
		var cm metrics.ControllerMetrics
		if cfg.Metrics.Enabled {
			cm = metricsprom.NewControllerMetrics()
		}
		a.controller = uploadcontroller.New(store, strategy, transport, uploadcontroller.Config{
			Timeout:       cfg.Upload.Timeout,
			SweepInterval: cfg.Upload.SweepInterval,
			Metrics:       cm,
		})
	}

	return a, nil
}
