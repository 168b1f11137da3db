package cli

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/squadplanner/squadxp/internal/domain"
)

func init() {
	rootCmd.AddCommand(statCmd)
}

var statCmd = &cobra.Command{
	Use:   "stat <name> [amount]",
	Short: "Increment an activity counter",
	Long: `Increment an activity counter (default amount 1). Counters never grant XP
by themselves; achievements are evaluated on the next XP award.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runStat,
}

func runStat(cmd *cobra.Command, args []string) error {
	name := domain.StatName(args[0])
	if !slices.Contains(domain.CounterStats, name) {
		return fmt.Errorf("%w: %s", domain.ErrUnknownStat, name)
	}

	amount := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}
		amount = n
	}

	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	if !d.Engine.IncrementStat(name, amount) {
		return fmt.Errorf("%s cannot be decreased", name)
	}
	counter := d.Engine.State().Stats
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %d\n", name, *counter.Counter(name))
	return nil
}
