// Package scoring computes the 0-100 ground-truth performance label used to
// train the role models. It runs at training time only; inference trusts the
// trained model.
package scoring

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pable/riftlens/internal/features"
	"github.com/pable/riftlens/internal/model"
)

// Weight is one signed stat weight. Negative marks a stat where lower is
// better; only the magnitude enters the score.
type Weight struct {
	Stat   string
	Weight float64
}

// Weights is the curated stat set for the relative component.
var Weights = []Weight{
	{"kda", 2.0},
	{"cs_per_min", 1.5},
	{"damage_per_min", 2.0},
	{"vision_per_min", 1.0},
	{"kill_participation", 1.5},
	{"damage_share", 1.5},
	{"time_dead_pct", -2.0},
}

const (
	winPoints  = 25.0
	lossPoints = 5.0

	relativeMax     = 50.0
	relativeDefault = relativeMax / 2
	impactMax       = 20.0

	// Added to every std so a constant stat never divides by zero.
	stdEpsilon = 1e-6
)

// Stat is the mean and (sample) standard deviation of one feature.
type Stat struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// RoleStats maps feature name to its distribution within one role.
type RoleStats map[string]Stat

// Breakdown is a score split into its three components.
type Breakdown struct {
	Outcome  float64 `json:"outcome"`
	Relative float64 `json:"relative"`
	Impact   float64 `json:"impact"`
	Total    float64 `json:"total"`
}

// Calculator scores samples against role statistics computed from the
// training set it was built with. It is read-only after construction.
type Calculator struct {
	roles map[model.Role]RoleStats
}

// NewCalculator computes per-role mean/std over every declared feature except
// game_duration, using all samples of the same role.
func NewCalculator(samples []model.TrainingSample) *Calculator {
	byRole := make(map[model.Role][]model.FeatureVector)
	for _, s := range samples {
		byRole[s.Role] = append(byRole[s.Role], s.Features)
	}

	c := &Calculator{roles: make(map[model.Role]RoleStats, len(byRole))}
	for role, vecs := range byRole {
		rs := make(RoleStats)
		for _, name := range features.Declared {
			if name == "game_duration" {
				continue
			}
			vals := make([]float64, 0, len(vecs))
			for _, v := range vecs {
				if x, ok := v[name]; ok {
					vals = append(vals, x)
				}
			}
			if len(vals) == 0 {
				continue
			}
			rs[name] = describe(vals)
		}
		c.roles[role] = rs
	}
	return c
}

func describe(vals []float64) Stat {
	if len(vals) < 2 {
		return Stat{Mean: vals[0], Std: stdEpsilon}
	}
	mean, std := stat.MeanStdDev(vals, nil)
	return Stat{Mean: mean, Std: std + stdEpsilon}
}

// RoleStats returns the statistics for role, or nil if the training set had
// no samples of that role.
func (c *Calculator) RoleStats(role model.Role) RoleStats {
	return c.roles[role]
}

// Score returns the clipped 0-100 label for s.
func (c *Calculator) Score(s model.TrainingSample) float64 {
	return c.Breakdown(s).Total
}

// Breakdown computes every component of the score for s.
func (c *Calculator) Breakdown(s model.TrainingSample) Breakdown {
	b := Breakdown{
		Outcome:  lossPoints,
		Relative: c.relative(s),
		Impact:   Impact(s.Features),
	}
	if s.Win {
		b.Outcome = winPoints
	}
	b.Total = clip(b.Outcome+b.Relative+b.Impact, 0, 100)
	return b
}

func (c *Calculator) relative(s model.TrainingSample) float64 {
	rs := c.roles[s.Role]
	var total float64
	var n int
	for _, w := range Weights {
		st, ok := rs[w.Stat]
		if !ok {
			continue
		}
		v, ok := s.Features[w.Stat]
		if !ok {
			continue
		}
		z := (v - st.Mean) / st.Std
		total += clip(5+z, 0, 10) * math.Abs(w.Weight)
		n++
	}
	if n == 0 {
		return relativeDefault
	}
	return clip(total/float64(n)*(relativeMax/10), 0, relativeMax)
}

// Impact is the capped objective and combat bonus.
func Impact(v model.FeatureVector) float64 {
	var pts float64
	pts += math.Min(v["turrets"]*2, 5)
	pts += math.Min(v["dragons"]*2, 5)
	pts += math.Min(v["barons"]*5, 5)
	if v["solo_kills"] >= 2 {
		pts += 3
	}
	if v["multikills"] >= 1 {
		pts += 2
	}
	return math.Min(pts, impactMax)
}

func clip(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
