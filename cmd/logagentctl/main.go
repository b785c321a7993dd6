// Command logagentctl runs and inspects a log-record agent: a
// bucketed durable store, an upload strategy, and the controller that
// drains buckets to a transport.
package main

import (
	"fmt"
	"os"

	"github.com/abohomol/kaa/cmd/logagentctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
