// Package predictor serves per-participant performance predictions from a
// loaded model registry.
package predictor

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/pable/riftlens/internal/features"
	"github.com/pable/riftlens/internal/metrics"
	"github.com/pable/riftlens/internal/model"
	"github.com/pable/riftlens/internal/registry"
)

// PercentileFunc maps a clipped 0-100 score to a 0-100 percentile.
type PercentileFunc func(score float64) float64

// LinearPercentile assumes scores are roughly normal around 50: every 10
// points moves 15 percentile points. It is a heuristic, not a fitted
// distribution.
func LinearPercentile(score float64) float64 {
	return clip(50+(score-50)*1.5, 0, 100)
}

// Grade maps a score to a letter using fixed lower bounds.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "S"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}

// Predictor is safe for concurrent use: it only reads the registry.
type Predictor struct {
	reg        *registry.Registry
	extractor  *features.Extractor
	percentile PercentileFunc
	log        zerolog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Predictor)

// WithPercentile replaces the percentile strategy.
func WithPercentile(f PercentileFunc) Option {
	return func(p *Predictor) { p.percentile = f }
}

func WithLogger(log zerolog.Logger) Option {
	return func(p *Predictor) { p.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Predictor) { p.metrics = m }
}

func New(reg *registry.Registry, opts ...Option) *Predictor {
	p := &Predictor{
		reg:        reg,
		percentile: LinearPercentile,
		log:        zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	p.log = p.log.With().Str("component", "predictor").Logger()
	p.extractor = features.NewExtractor(p.log, p.metrics)
	return p
}

// Predict scores one participant. It fails with model.ErrModelUnavailable
// when the role has no model and model.ErrFeature when extraction fails.
func (p *Predictor) Predict(rec *model.ParticipantRecord, mc model.MatchContext) (model.PredictionResult, error) {
	res, err := p.predict(rec, mc)
	role := "UNKNOWN"
	if rec != nil {
		role = rec.Role().String()
	}
	switch {
	case err == nil:
		p.metrics.ObservePrediction(role, "ok")
	case errors.Is(err, model.ErrModelUnavailable):
		p.metrics.ObservePrediction(role, "model_unavailable")
	default:
		p.metrics.ObservePrediction(role, "feature_error")
	}
	return res, err
}

func (p *Predictor) predict(rec *model.ParticipantRecord, mc model.MatchContext) (model.PredictionResult, error) {
	if rec == nil {
		return model.PredictionResult{}, fmt.Errorf("%w: nil participant", model.ErrFeature)
	}
	role := rec.Role()
	m, ok := p.reg.Model(role)
	if !role.Supported() || !ok {
		return model.PredictionResult{}, fmt.Errorf("%w: role %q", model.ErrModelUnavailable, rec.IndividualPosition)
	}

	vec, err := p.extractor.Extract(rec, mc)
	if err != nil {
		return model.PredictionResult{}, err
	}
	// Absent names become 0 so the row always matches the training layout.
	row := vec.Ordered(p.reg.Features())

	score := clip(m.Predict(row), 0, 100)
	return model.PredictionResult{
		PerformanceScore: round(score, 2),
		Role:             role,
		Grade:            Grade(score),
		Percentile:       round(clip(p.percentile(score), 0, 100), 1),
		Champion:         rec.ChampionName,
		Win:              rec.Win,
	}, nil
}

// PredictBatch predicts every participant independently and returns results
// keyed by PUUID. Participants that fail are logged and left out.
func (p *Predictor) PredictBatch(mc model.MatchContext, recs []model.ParticipantRecord) map[string]model.PredictionResult {
	out := make(map[string]model.PredictionResult, len(recs))
	for i := range recs {
		res, err := p.Predict(&recs[i], mc)
		if err != nil {
			p.log.Debug().Err(err).Str("match_id", mc.MatchID).Str("puuid", recs[i].PUUID).Msg("prediction skipped")
			continue
		}
		out[recs[i].PUUID] = res
	}
	return out
}

// PredictMatch is PredictBatch over every participant of m.
func (p *Predictor) PredictMatch(m *model.Match) map[string]model.PredictionResult {
	return p.PredictBatch(m.Context(), m.Info.Participants)
}

func clip(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Max(lo, math.Min(hi, x))
}

func round(x float64, places int) float64 {
	f := math.Pow(10, float64(places))
	return math.Round(x*f) / f
}
