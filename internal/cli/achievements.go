package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/squadplanner/squadxp/internal/app/gamification"
)

func init() {
	rootCmd.AddCommand(achievementsCmd)
	rootCmd.AddCommand(actionsCmd)
}

var achievementsCmd = &cobra.Command{
	Use:     "achievements",
	Aliases: []string{"badges"},
	Short:   "List achievements and which are unlocked",
	RunE:    runAchievements,
}

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List XP-granting actions and their rewards",
	Args:  cobra.NoArgs,
	RunE:  runActions,
}

func runAchievements(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, " \tID\tNAME\tBONUS\tDESCRIPTION")
	for _, a := range d.Engine.Catalogue() {
		mark := "·"
		if a.Unlocked {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s\t%s\t%s %s\t+%d\t%s\n", mark, a.ID, a.Icon, a.Name, a.XPBonus, a.Description)
	}
	return w.Flush()
}

func runActions(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACTION\tXP")
	for _, r := range gamification.Rewards() {
		fmt.Fprintf(w, "%s\t%d\n", r.Action, r.XP)
	}
	return w.Flush()
}
