package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Role is one of the five fixed lane assignments.
type Role int

const (
	RoleUnknown Role = iota
	RoleTop
	RoleJungle
	RoleMiddle
	RoleBottom
	RoleUtility
)

// Roles lists every supported role in canonical order.
var Roles = []Role{RoleTop, RoleJungle, RoleMiddle, RoleBottom, RoleUtility}

func (r Role) String() string {
	switch r {
	case RoleTop:
		return "TOP"
	case RoleJungle:
		return "JUNGLE"
	case RoleMiddle:
		return "MIDDLE"
	case RoleBottom:
		return "BOTTOM"
	case RoleUtility:
		return "UTILITY"
	default:
		return "UNKNOWN"
	}
}

// Supported reports whether r is one of the five real roles.
func (r Role) Supported() bool {
	return r >= RoleTop && r <= RoleUtility
}

// ParseRole maps a Riot position string to a Role. "Invalid", "" and any
// other unrecognised value map to RoleUnknown.
func ParseRole(s string) Role {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TOP":
		return RoleTop
	case "JUNGLE":
		return RoleJungle
	case "MIDDLE", "MID":
		return RoleMiddle
	case "BOTTOM", "BOT", "ADC":
		return RoleBottom
	case "UTILITY", "SUPPORT":
		return RoleUtility
	default:
		return RoleUnknown
	}
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = ParseRole(s)
	return nil
}

// ---- Source records (Riot match-v5 shape) ----

// ParticipantRecord is one player's stats for one match, decoded from the
// match-v5 participant object. It is never mutated after decoding.
type ParticipantRecord struct {
	PUUID              string `json:"puuid"`
	RiotIDGameName     string `json:"riotIdGameName,omitempty"`
	RiotIDTagline      string `json:"riotIdTagline,omitempty"`
	ChampionID         int    `json:"championId"`
	ChampionName       string `json:"championName"`
	IndividualPosition string `json:"individualPosition"`
	TeamPosition       string `json:"teamPosition,omitempty"`
	Win                bool   `json:"win"`

	Kills   int `json:"kills"`
	Deaths  int `json:"deaths"`
	Assists int `json:"assists"`

	TotalMinionsKilled   int `json:"totalMinionsKilled"`
	NeutralMinionsKilled int `json:"neutralMinionsKilled"`
	GoldEarned           int `json:"goldEarned"`

	TotalDamageDealtToChampions int `json:"totalDamageDealtToChampions"`
	TotalDamageTaken            int `json:"totalDamageTaken"`
	DamageSelfMitigated         int `json:"damageSelfMitigated"`

	VisionScore int `json:"visionScore"`
	WardsPlaced int `json:"wardsPlaced"`
	WardsKilled int `json:"wardsKilled"`
	TurretKills int `json:"turretKills"`
	DragonKills int `json:"dragonKills"`
	BaronKills  int `json:"baronKills"`
	DoubleKills int `json:"doubleKills"`
	TripleKills int `json:"tripleKills"`
	QuadraKills int `json:"quadraKills"`
	PentaKills  int `json:"pentaKills"`

	TimeCCingOthers                int `json:"timeCCingOthers"`
	TotalHeal                      int `json:"totalHeal"`
	TotalDamageShieldedOnTeammates int `json:"totalDamageShieldedOnTeammates"`
	TotalTimeSpentDead             int `json:"totalTimeSpentDead"`
	LongestTimeSpentLiving         int `json:"longestTimeSpentLiving"`

	FirstBloodKill bool `json:"firstBloodKill"`
	FirstTowerKill bool `json:"firstTowerKill"`

	// Challenges holds the "challenges" sub-statistics. Riot adds and
	// removes keys between patches, so it stays a free-form map.
	Challenges Challenges `json:"challenges,omitempty"`

	// present records which top-level keys appeared in the decoded JSON.
	// nil means the record was built in code and every field is authoritative.
	present map[string]struct{}
}

// UnmarshalJSON decodes the record and remembers which keys were present so
// the feature extractor can tell a real zero from a missing field.
func (p *ParticipantRecord) UnmarshalJSON(b []byte) error {
	type plain ParticipantRecord
	var dec plain
	if err := json.Unmarshal(b, &dec); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return err
	}
	*p = ParticipantRecord(dec)
	p.present = make(map[string]struct{}, len(keys))
	for k := range keys {
		p.present[k] = struct{}{}
	}
	return nil
}

// MarshalJSON re-encodes the record, omitting top-level keys that were
// absent when it was decoded so presence survives a storage round trip.
func (p ParticipantRecord) MarshalJSON() ([]byte, error) {
	type plain ParticipantRecord
	b, err := json.Marshal(plain(p))
	if err != nil || p.present == nil {
		return b, err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return nil, err
	}
	for k := range keys {
		if _, ok := p.present[k]; !ok {
			delete(keys, k)
		}
	}
	return json.Marshal(keys)
}

// Has reports whether the JSON key was present when the record was decoded.
// Records constructed in code report every key as present.
func (p *ParticipantRecord) Has(key string) bool {
	if p.present == nil {
		return true
	}
	_, ok := p.present[key]
	return ok
}

// Challenge returns a challenge sub-statistic and whether it was present.
func (p *ParticipantRecord) Challenge(key string) (float64, bool) {
	v, ok := p.Challenges[key]
	return v, ok
}

// Role resolves the participant's role from individualPosition, falling back
// to teamPosition.
func (p *ParticipantRecord) Role() Role {
	if r := ParseRole(p.IndividualPosition); r.Supported() {
		return r
	}
	return ParseRole(p.TeamPosition)
}

// RiotID returns "gameName#tagLine", or the PUUID when the name is unknown.
func (p *ParticipantRecord) RiotID() string {
	if p.RiotIDGameName == "" {
		return p.PUUID
	}
	return p.RiotIDGameName + "#" + p.RiotIDTagline
}

// Challenges is the numeric view of a participant's challenge block.
// Non-numeric entries (item lists and the like) are dropped on decode and
// booleans become 0/1.
type Challenges map[string]float64

func (c *Challenges) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Challenges, len(raw))
	for k, v := range raw {
		var f float64
		if err := json.Unmarshal(v, &f); err == nil {
			out[k] = f
			continue
		}
		var flag bool
		if err := json.Unmarshal(v, &flag); err == nil {
			if flag {
				out[k] = 1
			} else {
				out[k] = 0
			}
		}
	}
	*c = out
	return nil
}

// MatchContext is the per-match information extraction needs besides the
// participant itself.
type MatchContext struct {
	MatchID         string
	DurationSeconds int
	GameMode        string
	QueueID         int
	GameCreation    int64 // unix millis
}

// DurationMinutes returns the match length in minutes.
func (c MatchContext) DurationMinutes() float64 {
	return float64(c.DurationSeconds) / 60
}

// Match is one match-v5 payload reduced to the fields the engine uses.
type Match struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

type MatchMetadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"`
}

type MatchInfo struct {
	GameCreation int64               `json:"gameCreation"`
	GameDuration int                 `json:"gameDuration"`
	GameMode     string              `json:"gameMode"`
	GameVersion  string              `json:"gameVersion"`
	QueueID      int                 `json:"queueId"`
	Participants []ParticipantRecord `json:"participants"`
}

// Context returns the MatchContext for m.
func (m *Match) Context() MatchContext {
	return MatchContext{
		MatchID:         m.Metadata.MatchID,
		DurationSeconds: m.Info.GameDuration,
		GameMode:        m.Info.GameMode,
		QueueID:         m.Info.QueueID,
		GameCreation:    m.Info.GameCreation,
	}
}

// Participant returns the participant with the given PUUID, or nil.
func (m *Match) Participant(puuid string) *ParticipantRecord {
	for i := range m.Info.Participants {
		if m.Info.Participants[i].PUUID == puuid {
			return &m.Info.Participants[i]
		}
	}
	return nil
}

// ---- Derived records ----

// FeatureVector maps feature names to values. Extraction always emits the
// full declared feature set.
type FeatureVector map[string]float64

// Ordered returns the values for names in order, substituting 0 for any
// name the vector lacks.
func (v FeatureVector) Ordered(names []string) []float64 {
	out := make([]float64, len(names))
	for i, n := range names {
		out[i] = v[n]
	}
	return out
}

// TrainingSample is one labelled row for the role models.
type TrainingSample struct {
	MatchID  string
	PUUID    string
	Champion string
	Role     Role
	Win      bool
	Features FeatureVector
}

// PredictionResult is the Predictor's output for one participant.
type PredictionResult struct {
	PerformanceScore float64 `json:"performance_score"`
	Role             Role    `json:"role"`
	Grade            string  `json:"grade"`
	Percentile       float64 `json:"percentile"`
	Champion         string  `json:"champion"`
	Win              bool    `json:"win"`
}

// AnalysisCacheRecord is the stored insight payload for one player.
// ProcessedMatchIDs is exactly the set of matches folded into Insights.
type AnalysisCacheRecord struct {
	PlayerKey          string         `json:"player_key"`
	RunID              string         `json:"run_id"`
	ProcessedMatchIDs  []string       `json:"processed_match_ids"`
	LastUpdated        time.Time      `json:"last_updated"`
	NumMatchesAnalyzed int            `json:"num_matches_analyzed"`
	RecomputeReason    string         `json:"recompute_reason"`
	Insights           InsightResults `json:"insights"`
}

// PlayerAnalysis is the final per-request document: insights plus prose.
type PlayerAnalysis struct {
	PlayerKey   string         `json:"player_key"`
	RiotID      string         `json:"riot_id"`
	Insights    InsightResults `json:"ml_results"`
	Narrative   string         `json:"narrative"`
	Cached      bool           `json:"cached"`
	CacheReason string         `json:"cache_reason"`
	ProcessedAt time.Time      `json:"processed_at"`
	RunID       string         `json:"run_id"`
}
