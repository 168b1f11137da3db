package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/squadplanner/squadxp/internal/domain"
)

func init() {
	syncCmd.Flags().Int64Var(&syncXP, "xp", 0, "Remote XP value")
	syncCmd.Flags().IntVar(&syncLevel, "level", 0, "Remote level value")
	syncCmd.Flags().BoolVar(&syncRemote, "remote", false, "Fetch the profile from the remote database")
	rootCmd.AddCommand(syncCmd)
}

var (
	syncXP     int64
	syncLevel  int
	syncRemote bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge a remote profile without losing local progress",
	Long: `Merge a remote xp/level into the local profile. The remote is adopted
only when it is ahead of the local XP, or when the local XP is still 0.

Values come from --xp/--level, or from the remote database with --remote.`,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	var adopted bool
	if syncRemote {
		if d.Remote == nil {
			return domain.ErrRemoteDisabled
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		adopted, err = d.Engine.Pull(ctx, d.Remote, d.ProfileID)
		if err != nil {
			return err
		}
	} else {
		var remote domain.RemoteProfile
		if cmd.Flags().Changed("xp") {
			remote.XP = &syncXP
		}
		if cmd.Flags().Changed("level") {
			remote.Level = &syncLevel
		}
		if remote.XP == nil && remote.Level == nil {
			return errors.New("nothing to sync: pass --xp/--level or --remote")
		}
		adopted = d.Engine.SyncFromDB(remote)
	}

	st := d.Engine.State()
	if adopted {
		fmt.Fprintf(cmd.OutOrStdout(), "Adopted remote profile: %d XP, level %d\n", st.XP, st.Level)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Kept local profile: %d XP, level %d\n", st.XP, st.Level)
	}
	return nil
}
