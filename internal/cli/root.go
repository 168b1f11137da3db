// Package cli implements the squadxp command-line interface using Cobra.
// Each subcommand maps to one engine operation on the local store.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "squadxp",
	Short: "squadxp: gamification engine for Squad Planner",
	Long: `squadxp tracks XP, levels, activity stats and achievements for a
Squad Planner profile, and serves them over HTTP and websocket.

Run 'squadxp serve' for the daemon, or use the subcommands to inspect and
update the local profile directly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
