package gamification

import "github.com/squadplanner/squadxp/internal/domain"

// ComputeProgress derives the within-level progress bar for xp at level.
// At (or past) the max level the span is zero and percent is 100.
func ComputeProgress(xp int64, level int) domain.Progress {
	level = max(level, 1)

	current := XPForLevel(level)
	next := LevelThresholds[MaxLevel-1]
	if level < MaxLevel {
		next = LevelThresholds[level]
	}

	p := domain.Progress{
		Current: xp - current,
		Needed:  next - current,
		Percent: 100,
	}
	if p.Needed > 0 {
		pct := float64(p.Current) / float64(p.Needed) * 100.0
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		p.Percent = pct
	}
	return p
}
