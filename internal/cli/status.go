package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(progressCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show level, XP, streak and pending celebrations",
	Long: `Show the profile as the running daemon sees it, including pending
celebrations. Without a daemon, the local store is read instead.`,
	RunE: runStatus,
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show the progress bar toward the next level",
	RunE:  runProgress,
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := connectDaemon()
	if err != nil {
		return err
	}
	st, err := c.State()
	if err == nil {
		printState(cmd.OutOrStdout(), st)
		return nil
	}
	if !errors.Is(err, errDaemonDown) {
		return err
	}

	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	printState(cmd.OutOrStdout(), d.Engine.State())
	fmt.Fprintln(cmd.OutOrStdout(), "(daemon not running: local store only)")
	return nil
}

func runProgress(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Level %d · %s\n", d.Engine.State().Level, d.Engine.LevelTitle())
	fmt.Fprintln(cmd.OutOrStdout(), renderBar(d.Engine.Progress()))
	return nil
}
