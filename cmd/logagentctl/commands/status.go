package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the store's current status counters",
	Long: `Status opens the configured store and prints unmarked_records and
consumed_volume: the pair of counters an upload strategy consults.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(GetConfigFile())
	if err != nil {
		return err
	}

	store, err := buildStore(*cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	status, err := store.Status(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("records=%d consumed_volume=%d\n", status.RecordsCount, status.ConsumedVolume)
	return nil
}
