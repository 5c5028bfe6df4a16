// Package features turns one participant's match record into a flat,
// positionally stable FeatureVector.
package features

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pable/riftlens/internal/metrics"
	"github.com/pable/riftlens/internal/model"
)

// Required source keys. A record missing any of these cannot be scored.
var required = []string{"kills", "deaths", "assists"}

// Extract computes the declared feature set for p. It also returns the
// source fields that were absent and defaulted to zero, in a stable order.
// Challenge sub-statistics are reported as "challenges.<key>".
//
// Extract is pure: it reads p and ctx and nothing else.
func Extract(p *model.ParticipantRecord, ctx model.MatchContext) (model.FeatureVector, []string, error) {
	if p == nil {
		return nil, nil, fmt.Errorf("%w: nil participant", model.ErrFeature)
	}
	if ctx.DurationSeconds <= 0 {
		return nil, nil, fmt.Errorf("%w: match %s has non-positive duration %d", model.ErrFeature, ctx.MatchID, ctx.DurationSeconds)
	}
	for _, k := range required {
		if !p.Has(k) {
			return nil, nil, fmt.Errorf("%w: match %s participant %s missing %q", model.ErrFeature, ctx.MatchID, p.PUUID, k)
		}
	}

	var defaulted []string
	field := func(key string, v int) float64 {
		if !p.Has(key) {
			defaulted = append(defaulted, key)
		}
		return float64(v)
	}
	flag := func(key string, v bool) float64 {
		if !p.Has(key) {
			defaulted = append(defaulted, key)
		}
		if v {
			return 1
		}
		return 0
	}
	challenge := func(key string) float64 {
		v, ok := p.Challenge(key)
		if !ok {
			defaulted = append(defaulted, "challenges."+key)
		}
		return v
	}

	mins := ctx.DurationMinutes()
	secs := float64(ctx.DurationSeconds)
	kills, deaths, assists := float64(p.Kills), float64(p.Deaths), float64(p.Assists)

	cs := field("totalMinionsKilled", p.TotalMinionsKilled)
	gold := field("goldEarned", p.GoldEarned)
	damage := field("totalDamageDealtToChampions", p.TotalDamageDealtToChampions)
	taken := field("totalDamageTaken", p.TotalDamageTaken)
	vision := field("visionScore", p.VisionScore)
	dead := field("totalTimeSpentDead", p.TotalTimeSpentDead)

	multikills := field("doubleKills", p.DoubleKills) +
		2*field("tripleKills", p.TripleKills) +
		3*field("quadraKills", p.QuadraKills) +
		4*field("pentaKills", p.PentaKills)

	// Laners report lane minions, junglers report camps; take whichever is set.
	csAt10, laneOK := p.Challenge("laneMinionsFirst10Minutes")
	if csAt10 == 0 {
		jg, jgOK := p.Challenge("jungleCsBefore10Minutes")
		csAt10 = jg
		if !laneOK && !jgOK {
			defaulted = append(defaulted, "challenges.laneMinionsFirst10Minutes")
		}
	}

	goldAdv := 0.0
	if challenge("earlyLaningPhaseGoldExpAdvantage") > 0 {
		goldAdv = 1
	}

	v := model.FeatureVector{
		"kills":                kills,
		"deaths":               deaths,
		"assists":              assists,
		"kda":                  KDA(p.Kills, p.Deaths, p.Assists),
		"cs":                   cs,
		"cs_per_min":           cs / mins,
		"jungle_cs":            field("neutralMinionsKilled", p.NeutralMinionsKilled),
		"gold":                 gold,
		"gold_per_min":         gold / mins,
		"damage":               damage,
		"damage_per_min":       damage / mins,
		"damage_taken_per_min": taken / mins,
		"damage_mitigated":     field("damageSelfMitigated", p.DamageSelfMitigated),
		"damage_share":         challenge("teamDamagePercentage"),
		"vision":               vision,
		"vision_per_min":       vision / mins,
		"wards_placed":         field("wardsPlaced", p.WardsPlaced),
		"wards_killed":         field("wardsKilled", p.WardsKilled),
		"control_wards":        challenge("controlWardsPlaced"),
		"turret_plates":        challenge("turretPlatesTaken"),
		"turrets":              field("turretKills", p.TurretKills),
		"dragons":              field("dragonKills", p.DragonKills),
		"barons":               field("baronKills", p.BaronKills),
		"cs_at_10":             csAt10,
		"cs_advantage":         challenge("maxCsAdvantageOnLaneOpponent"),
		"gold_advantage":       goldAdv,
		"kill_participation":   challenge("killParticipation"),
		"solo_kills":           challenge("soloKills"),
		"multikills":           multikills,
		"cc_time":              field("timeCCingOthers", p.TimeCCingOthers),
		"healing":              field("totalHeal", p.TotalHeal),
		"shielding":            field("totalDamageShieldedOnTeammates", p.TotalDamageShieldedOnTeammates),
		"time_dead_pct":        dead / secs,
		"longest_living":       field("longestTimeSpentLiving", p.LongestTimeSpentLiving),
		"skillshots_hit":       challenge("skillshotsHit"),
		"skillshots_dodged":    challenge("skillshotsDodged"),
		"first_blood":          flag("firstBloodKill", p.FirstBloodKill),
		"first_tower":          flag("firstTowerKill", p.FirstTowerKill),
		"game_duration":        mins,
	}
	return v, defaulted, nil
}

// KDA is (kills+assists)/max(deaths,1). A deathless game counts as one death.
func KDA(kills, deaths, assists int) float64 {
	d := deaths
	if d < 1 {
		d = 1
	}
	return float64(kills+assists) / float64(d)
}

// Extractor wraps Extract with logging and metrics for defaulted fields.
type Extractor struct {
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewExtractor(log zerolog.Logger, m *metrics.Metrics) *Extractor {
	return &Extractor{log: log.With().Str("component", "features").Logger(), metrics: m}
}

// Extract runs the pure extraction and reports any defaulted fields.
func (e *Extractor) Extract(p *model.ParticipantRecord, ctx model.MatchContext) (model.FeatureVector, error) {
	v, defaulted, err := Extract(p, ctx)
	if err != nil {
		return nil, err
	}
	if len(defaulted) > 0 {
		e.log.Warn().
			Str("match_id", ctx.MatchID).
			Str("puuid", p.PUUID).
			Strs("defaulted", defaulted).
			Msg("participant fields missing, defaulted to zero")
		e.metrics.ObserveDefaulted(defaulted)
	}
	return v, nil
}
