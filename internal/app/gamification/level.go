package gamification

// LevelThresholds holds the cumulative XP required for each level.
// Level n starts at LevelThresholds[n-1].
var LevelThresholds = [...]int64{
	0,     // L1
	100,   // L2
	250,   // L3
	500,   // L4
	850,   // L5
	1300,  // L6
	1900,  // L7
	2600,  // L8
	3500,  // L9
	4600,  // L10
	6000,  // L11
	7700,  // L12
	9800,  // L13
	12300, // L14
	15300, // L15
	18800, // L16
	23000, // L17
	28000, // L18
	34000, // L19
	41000, // L20 (max)
}

// MaxLevel is the highest level the threshold table can produce.
const MaxLevel = len(LevelThresholds)

// LevelTitles names each level, same length as LevelThresholds.
var LevelTitles = [MaxLevel]string{
	"Recrue",
	"Soldat",
	"Caporal",
	"Sergent",
	"Lieutenant",
	"Capitaine",
	"Commandant",
	"Colonel",
	"Général",
	"Maréchal",
	"Légende",
	"Mythique",
	"Immortel",
	"Divin",
	"Transcendant",
	"Cosmique",
	"Éternel",
	"Absolu",
	"Suprême",
	"Ultime",
}

// ResolveLevel returns the level for a cumulative XP amount.
// Scans downward for the highest threshold reached; XP past the last
// threshold stays at MaxLevel.
func ResolveLevel(xp int64) int {
	for i := MaxLevel - 1; i >= 0; i-- {
		if xp >= LevelThresholds[i] {
			return i + 1
		}
	}
	return 1
}

// XPForLevel returns the XP threshold at which a level starts.
// Levels past the table clamp to the last threshold.
func XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return LevelThresholds[level-1]
}

// Title returns the display title for a level. Levels past the table reuse
// the final title.
func Title(level int) string {
	idx := min(level-1, len(LevelTitles)-1)
	if idx < 0 {
		idx = 0
	}
	return LevelTitles[idx]
}
