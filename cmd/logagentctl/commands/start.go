package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abohomol/kaa/internal/logger"
)

var (
	failureRate float64
	sendLatency time.Duration
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the agent until interrupted",
	Long: `Start opens the configured store, builds the configured upload
strategy, and runs the upload controller against a demo transport until
interrupted with Ctrl+C.`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().Float64Var(&failureRate, "failure-rate", 0.1, "fraction of demo deliveries to fail, in [0,1]")
	startCmd.Flags().DurationVar(&sendLatency, "send-latency", 200*time.Millisecond, "simulated transport latency per bucket")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(GetConfigFile())
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	transport := newDemoTransport(failureRate, sendLatency)
	a, err := buildAgent(*cfg, transport)
	if err != nil {
		return err
	}
	defer func() { _ = a.store.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.controller.Start(ctx)
	logger.Info("agent started", "backend", cfg.Store.Backend, "strategy", cfg.Strategy.Kind)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received")
	cancel()
	a.controller.Stop()
	logger.Info("agent stopped")
	return nil
}
