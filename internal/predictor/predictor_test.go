package predictor

import (
	"errors"
	"testing"

	"github.com/pable/riftlens/internal/features"
	"github.com/pable/riftlens/internal/metrics"
	"github.com/pable/riftlens/internal/model"
	"github.com/pable/riftlens/internal/registry"
)

type constModel float64

func (c constModel) Predict([]float64) float64 { return float64(c) }

// rowModel returns the value at column i, to check feature ordering.
type rowModel int

func (c rowModel) Predict(row []float64) float64 { return row[c] }

func newPredictor(t *testing.T, models map[model.Role]registry.RoleModel, opts ...Option) *Predictor {
	t.Helper()
	reg := registry.New(features.ModelColumns, models, registry.Metadata{})
	return New(reg, opts...)
}

func participant(puuid, pos string) model.ParticipantRecord {
	return model.ParticipantRecord{
		PUUID:              puuid,
		ChampionName:       "Garen",
		IndividualPosition: pos,
		Win:                true,
		Kills:              5,
		Deaths:             2,
		Assists:            7,
		TotalMinionsKilled: 180,
	}
}

var ctx30 = model.MatchContext{MatchID: "EUW1_1", DurationSeconds: 1800, GameMode: "CLASSIC"}

func TestGradeBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{100, "S"}, {90.0, "S"}, {89.99, "A"}, {80, "A"}, {79.999, "B"},
		{70, "B"}, {60, "C"}, {50, "D"}, {49.99, "F"}, {0, "F"},
	}
	for _, c := range cases {
		if got := Grade(c.score); got != c.want {
			t.Errorf("Grade(%v) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestLinearPercentile(t *testing.T) {
	for score, want := range map[float64]float64{50: 50, 60: 65, 90: 100, 10: 0, 0: 0} {
		if got := LinearPercentile(score); got != want {
			t.Errorf("LinearPercentile(%v) = %v, want %v", score, got, want)
		}
	}
}

func TestPredictClipsAndGrades(t *testing.T) {
	cases := []struct {
		raw       float64
		wantScore float64
		wantGrade string
		wantPct   float64
	}{
		{150, 100, "S", 100},
		{-20, 0, "F", 0},
		{90.0, 90, "S", 100},
		{89.99, 89.99, "A", 100},
		{61.234567, 61.23, "C", 66.9},
	}
	for _, c := range cases {
		p := newPredictor(t, map[model.Role]registry.RoleModel{model.RoleTop: constModel(c.raw)})
		rec := participant("p1", "TOP")
		res, err := p.Predict(&rec, ctx30)
		if err != nil {
			t.Fatalf("Predict(%v): %v", c.raw, err)
		}
		if res.PerformanceScore != c.wantScore || res.Grade != c.wantGrade || res.Percentile != c.wantPct {
			t.Errorf("raw %v: got %+v, want score %v grade %s pct %v", c.raw, res, c.wantScore, c.wantGrade, c.wantPct)
		}
		if res.Role != model.RoleTop || res.Champion != "Garen" || !res.Win {
			t.Errorf("unexpected identity fields: %+v", res)
		}
	}
}

func TestPredictUsesRegistryOrder(t *testing.T) {
	idx := features.Index(features.ModelColumns, "kda")
	p := newPredictor(t, map[model.Role]registry.RoleModel{model.RoleMiddle: rowModel(idx)})
	rec := participant("p1", "MIDDLE")
	res, err := p.Predict(&rec, ctx30)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.PerformanceScore != 6 {
		t.Errorf("expected kda 6 in column %d, got %v", idx, res.PerformanceScore)
	}
}

func TestPredictUnsupportedRole(t *testing.T) {
	p := newPredictor(t, map[model.Role]registry.RoleModel{model.RoleTop: constModel(50)})
	for _, pos := range []string{"JUNGLE", "Invalid", ""} {
		rec := participant("p1", pos)
		_, err := p.Predict(&rec, ctx30)
		if !errors.Is(err, model.ErrModelUnavailable) {
			t.Errorf("position %q: expected ErrModelUnavailable, got %v", pos, err)
		}
	}
}

func TestPredictDegenerateDuration(t *testing.T) {
	p := newPredictor(t, map[model.Role]registry.RoleModel{model.RoleTop: constModel(50)})
	rec := participant("p1", "TOP")
	_, err := p.Predict(&rec, model.MatchContext{MatchID: "m", DurationSeconds: 0})
	if !errors.Is(err, model.ErrFeature) {
		t.Errorf("expected ErrFeature, got %v", err)
	}
}

func TestPredictBatchOmitsFailures(t *testing.T) {
	m := metrics.New()
	p := newPredictor(t, map[model.Role]registry.RoleModel{
		model.RoleTop:     constModel(72),
		model.RoleUtility: constModel(40),
	}, WithMetrics(m))
	recs := []model.ParticipantRecord{
		participant("a", "TOP"),
		participant("b", "JUNGLE"),
		participant("c", "UTILITY"),
	}
	got := p.PredictBatch(ctx30, recs)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d: %v", len(got), got)
	}
	if got["a"].Grade != "B" || got["c"].Grade != "F" {
		t.Errorf("unexpected grades: %+v", got)
	}
	if _, ok := got["b"]; ok {
		t.Error("expected jungle participant to be omitted")
	}
}

func TestCustomPercentile(t *testing.T) {
	p := newPredictor(t, map[model.Role]registry.RoleModel{model.RoleBottom: constModel(70)},
		WithPercentile(func(float64) float64 { return 12.345 }))
	rec := participant("p1", "BOTTOM")
	res, err := p.Predict(&rec, ctx30)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.Percentile != 12.3 {
		t.Errorf("Percentile = %v, want 12.3", res.Percentile)
	}
}
