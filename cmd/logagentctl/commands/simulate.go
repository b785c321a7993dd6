package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abohomol/kaa/internal/logger"
	"github.com/abohomol/kaa/pkg/logstore"
)

var (
	simulateCount     int
	simulateRecordLen int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Append synthetic records and run a single decision cycle",
	Long: `Simulate appends a burst of synthetic records to the configured
store, runs one Tick of the upload controller against a demo transport,
and prints the resulting status. Useful for exercising rotation and
drain behavior without a live producer.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&simulateCount, "count", 100, "number of synthetic records to append")
	simulateCmd.Flags().IntVar(&simulateRecordLen, "record-bytes", 64, "size in bytes of each synthetic record")
}

func runSimulate(cmd *cobra.Command, args []string) error {
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

	ctx := context.Background()
	payload := make([]byte, simulateRecordLen)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}

	for i := 0; i < simulateCount; i++ {
		if _, err := a.store.AddRecord(ctx, logstore.NewRecord(payload)); err != nil {
			return fmt.Errorf("appending record %d: %w", i, err)
		}
	}

	status, err := a.store.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("after append: records=%d consumed_volume=%d\n", status.RecordsCount, status.ConsumedVolume)

	if err := a.controller.Tick(ctx); err != nil {
		return fmt.Errorf("tick: %w", err)
	}

	// give the demo transport's dispatched goroutines a moment to resolve.
	time.Sleep(sendLatency + 100*time.Millisecond)

	status, err = a.store.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("after tick:   records=%d consumed_volume=%d\n", status.RecordsCount, status.ConsumedVolume)
	return nil
}
