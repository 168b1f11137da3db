package cli

import (
	"fmt"
	"strings"

	"github.com/squadplanner/squadxp/internal/domain"
)

// ─── Progress Bar ───────────────────────────────────────────────────────────
// Renders the within-level bar: [████████░░░░░░░░░░░░] 28% │ 100 / 350 XP

const barWidth = 20 // Characters for the progress bar

func renderBar(p domain.Progress) string {
	filled := int(p.Percent / 100 * barWidth)
	filled = min(max(filled, 0), barWidth)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	if p.Needed <= 0 {
		return fmt.Sprintf("[%s] max level", bar)
	}
	return fmt.Sprintf("[%s] %3.0f%% │ %d / %d XP", bar, p.Percent, p.Current, p.Needed)
}
