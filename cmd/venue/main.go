// Command venue runs the matching engine server and its CLI client,
// following the teacher's split between a long-running server process and a
// thin flag-driven client, rebuilt here as a single cobra-based binary with
// "serve" and "order" subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "venue",
		Short:                      "Central limit order book matching engine",
		SuggestionsMinimumDistance: 2,
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newOrderCmd())
	return cmd
}
