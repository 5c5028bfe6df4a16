package features

// Declared is the full, ordered feature set every extraction emits.
var Declared = []string{
	"kills", "deaths", "assists", "kda",
	"cs", "cs_per_min", "jungle_cs", "gold", "gold_per_min",
	"damage", "damage_per_min", "damage_taken_per_min", "damage_mitigated", "damage_share",
	"vision", "vision_per_min", "wards_placed", "wards_killed", "control_wards",
	"turret_plates", "turrets", "dragons", "barons",
	"cs_at_10", "cs_advantage", "gold_advantage",
	"kill_participation", "solo_kills", "multikills",
	"cc_time", "healing", "shielding",
	"time_dead_pct", "longest_living",
	"skillshots_hit", "skillshots_dodged",
	"first_blood", "first_tower",
	"game_duration",
}

// ModelColumns is the default training manifest for the role models: the
// declared set without the raw totals, which duplicate the per-minute rates.
var ModelColumns = without(Declared, "cs", "gold", "damage", "vision")

// InsightColumns feeds the per-player insight battery.
var InsightColumns = []string{
	"kills", "deaths", "assists", "cs", "gold", "damage", "vision",
	"kda", "cs_per_min", "gold_per_min", "damage_per_min",
}

// Index returns the position of name in names, or -1.
func Index(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func without(names []string, drop ...string) []string {
	skip := make(map[string]bool, len(drop))
	for _, d := range drop {
		skip[d] = true
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !skip[n] {
			out = append(out, n)
		}
	}
	return out
}
