// Package commands implements the logagentctl CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "logagentctl",
	Short: "Run and inspect a bucketed log-record agent",
	Long: `logagentctl runs the log-record store, upload strategy, and upload
controller as a standalone agent, for exercising and inspecting the
bucket rotation, drain, and backoff behavior outside of a host process.

Use "logagentctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: none; built-in defaults are used)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(simulateCmd)
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}
