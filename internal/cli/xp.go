package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/squadplanner/squadxp/internal/domain"
	"github.com/squadplanner/squadxp/internal/infra/metrics"
)

func init() {
	rootCmd.AddCommand(xpCmd)
}

var xpCmd = &cobra.Command{
	Use:   "xp <action>",
	Short: "Award XP for an action",
	Long:  `Award the XP for an action such as session.create. See 'squadxp actions' for the table.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runXP,
}

func runXP(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	action := domain.Action(args[0])
	award, ok := d.Engine.AddXP(action)
	if !ok {
		metrics.UnknownActions.Inc()
		return fmt.Errorf("%w: %s", domain.ErrUnknownAction, action)
	}
	printAward(cmd.OutOrStdout(), award)
	return nil
}
