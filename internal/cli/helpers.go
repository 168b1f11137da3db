package cli

import (
	"fmt"
	"io"

	"github.com/squadplanner/squadxp/internal/app/gamification"
	"github.com/squadplanner/squadxp/internal/daemon"
	"github.com/squadplanner/squadxp/internal/domain"
)

// openDaemon boots the daemon for a one-shot command. Close flushes the
// snapshot the command produced.
func openDaemon() (*daemon.Daemon, error) {
	return daemon.New()
}

// printAward writes the outcome of an AddXP call.
func printAward(w io.Writer, a gamification.Award) {
	fmt.Fprintf(w, "+%d XP (%s) → %d XP\n", a.Reward, a.Action, a.XP)
	if a.Unlocked != nil {
		fmt.Fprintf(w, "%s Achievement unlocked: %s (+%d XP)\n", a.Unlocked.Icon, a.Unlocked.Name, a.Unlocked.XPBonus)
	}
	if a.LeveledUp {
		fmt.Fprintf(w, "Level up! %d → %d (%s)\n", a.FromLevel, a.ToLevel, gamification.Title(a.ToLevel))
	}
}

// printState writes the status summary.
func printState(w io.Writer, st domain.State) {
	fmt.Fprintf(w, "Level %d · %s\n", st.Level, gamification.Title(st.Level))
	fmt.Fprintf(w, "XP:    %d\n", st.XP)
	fmt.Fprintf(w, "       %s\n", renderBar(gamification.ComputeProgress(st.XP, st.Level)))
	fmt.Fprintf(w, "Streak: %d (best %d)\n", st.Stats.CurrentStreak, st.Stats.BestStreak)
	fmt.Fprintf(w, "Achievements: %d / %d\n", len(st.UnlockedAchievements), len(gamification.Achievements()))

	if p := st.PendingLevelUp; p != nil {
		fmt.Fprintf(w, "Pending: level up %d → %d\n", p.From, p.To)
	}
	if a := st.PendingAchievement; a != nil {
		fmt.Fprintf(w, "Pending: achievement %s %s\n", a.Icon, a.Name)
	}
}
