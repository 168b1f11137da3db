package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(dismissCmd)
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss levelup|achievement",
	Short: "Acknowledge a pending celebration on the running daemon",
	Long: `Clear the pending level-up or achievement celebration. Celebrations are
held in the daemon's memory, so 'squadxp serve' must be running.`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"levelup", "achievement"},
	RunE:      runDismiss,
}

func runDismiss(cmd *cobra.Command, args []string) error {
	c, err := connectDaemon()
	if err != nil {
		return err
	}
	if err := c.Dismiss(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Dismissed %s\n", args[0])
	return nil
}
