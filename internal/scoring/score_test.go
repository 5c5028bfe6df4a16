package scoring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/riftlens/internal/features"
	"github.com/pable/riftlens/internal/model"
)

func sample(role model.Role, win bool, kda, cspm, dpm, vpm, kp, share, dead float64) model.TrainingSample {
	v := model.FeatureVector{}
	for _, n := range features.Declared {
		v[n] = 0
	}
	v["kda"] = kda
	v["cs_per_min"] = cspm
	v["damage_per_min"] = dpm
	v["vision_per_min"] = vpm
	v["kill_participation"] = kp
	v["damage_share"] = share
	v["time_dead_pct"] = dead
	v["game_duration"] = 30
	return model.TrainingSample{Role: role, Win: win, Features: v}
}

func trainingSet() []model.TrainingSample {
	rng := rand.New(rand.NewSource(7))
	var out []model.TrainingSample
	for i := 0; i < 60; i++ {
		out = append(out, sample(model.RoleMiddle, i%2 == 0,
			1+rng.Float64()*5, 5+rng.Float64()*4, 400+rng.Float64()*600,
			0.5+rng.Float64(), 0.3+rng.Float64()*0.4, 0.15+rng.Float64()*0.2, rng.Float64()*0.2))
	}
	return out
}

func TestScoreBounds(t *testing.T) {
	set := trainingSet()
	c := NewCalculator(set)
	for _, s := range set {
		got := c.Score(s)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 100.0)
	}
	extreme := sample(model.RoleMiddle, true, 1e6, 1e6, 1e6, 1e6, 1e6, 1e6, -1e6)
	extreme.Features["turrets"] = 50
	extreme.Features["dragons"] = 50
	extreme.Features["barons"] = 50
	extreme.Features["solo_kills"] = 10
	extreme.Features["multikills"] = 10
	b := c.Breakdown(extreme)
	assert.Equal(t, 50.0, b.Relative)
	assert.Equal(t, 20.0, b.Impact)
	assert.Equal(t, 95.0, b.Total)
}

func TestWinBeatsIdenticalLoss(t *testing.T) {
	c := NewCalculator(trainingSet())
	best := sample(model.RoleMiddle, true, 20, 12, 2000, 3, 1, 0.6, 0)
	loss := best
	loss.Win = false
	assert.Greater(t, c.Score(best), c.Score(loss))
}

func TestNegativeWeightUsesMagnitudeOnly(t *testing.T) {
	var set []model.TrainingSample
	for _, dead := range []float64{0.1, 0.2, 0.3} {
		set = append(set, sample(model.RoleTop, true, 3, 7, 700, 1, 0.5, 0.25, dead))
	}
	c := NewCalculator(set)

	// Six constant stats sit at 5 each; time_dead_pct is one std off the mean
	// and enters as clip(5+z) times |-2|.
	constant := 5 * (2.0 + 1.5 + 2.0 + 1.0 + 1.5 + 1.5)
	high := (constant + 2*(5+1)) / 7 * 5
	low := (constant + 2*(5-1)) / 7 * 5

	assert.InDelta(t, high, c.Breakdown(set[2]).Relative, 1e-3)
	assert.InDelta(t, low, c.Breakdown(set[0]).Relative, 1e-3)
	assert.InDelta(t, constant/7*5+2*5/7.0*5, c.Breakdown(set[1]).Relative, 1e-3)
	assert.Greater(t, c.Score(set[2]), c.Score(set[0]))
}

func TestRoleWithoutStatsUsesMidpoint(t *testing.T) {
	c := NewCalculator(trainingSet())
	s := sample(model.RoleTop, false, 3, 7, 700, 1, 0.5, 0.25, 0.1)
	b := c.Breakdown(s)
	assert.Equal(t, 25.0, b.Relative)
	assert.Equal(t, 5.0, b.Outcome)
	assert.Equal(t, 30.0, b.Total)
}

func TestImpactCaps(t *testing.T) {
	v := model.FeatureVector{"turrets": 1, "dragons": 4, "barons": 0, "solo_kills": 2, "multikills": 0}
	assert.Equal(t, 2.0+5.0+3.0, Impact(v))
}

func TestRoleStatsUseSampleStd(t *testing.T) {
	set := []model.TrainingSample{
		sample(model.RoleBottom, true, 1, 0, 0, 0, 0, 0, 0),
		sample(model.RoleBottom, true, 3, 0, 0, 0, 0, 0, 0),
	}
	c := NewCalculator(set)
	st := c.RoleStats(model.RoleBottom)["kda"]
	assert.InDelta(t, 2.0, st.Mean, 1e-12)
	assert.InDelta(t, 1.4142135623730951+1e-6, st.Std, 1e-9)
	_, ok := c.RoleStats(model.RoleBottom)["game_duration"]
	require.False(t, ok)
}
