// Package training turns stored matches into per-role performance models:
// label every participant with the score calculator, fit one boosted
// ensemble per role, evaluate it on a held-out split, and save the artifacts.
package training

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/pable/riftlens/internal/collector"
	"github.com/pable/riftlens/internal/config"
	"github.com/pable/riftlens/internal/features"
	"github.com/pable/riftlens/internal/ml"
	"github.com/pable/riftlens/internal/model"
	"github.com/pable/riftlens/internal/registry"
	"github.com/pable/riftlens/internal/scoring"
)

const topFeatureCount = 5

type Params struct {
	MinSamples   int     // roles with fewer samples get no model
	TestFraction float64 // held-out share, rounded up
	Boost        ml.BoostParams
	Features     []string
}

// ParamsFromConfig maps the training config section onto Params using the
// default model feature manifest.
func ParamsFromConfig(cfg config.TrainingConfig) Params {
	return Params{
		MinSamples:   cfg.MinSamples,
		TestFraction: cfg.TestFraction,
		Boost: ml.BoostParams{
			Trees:           cfg.Trees,
			MaxDepth:        cfg.MaxDepth,
			LearningRate:    cfg.LearningRate,
			Subsample:       cfg.Subsample,
			ColsampleByTree: cfg.ColsampleByTree,
			Seed:            cfg.Seed,
		},
		Features: features.ModelColumns,
	}
}

// Result holds the fitted models and the metadata describing the run.
type Result struct {
	Models   map[model.Role]*ml.Ensemble
	Metadata registry.Metadata
}

type Trainer struct {
	params Params
	log    zerolog.Logger
	now    func() time.Time
}

func New(params Params, log zerolog.Logger) *Trainer {
	if len(params.Features) == 0 {
		params.Features = features.ModelColumns
	}
	return &Trainer{params: params, log: log, now: time.Now}
}

// Samples extracts one training sample per usable participant of m. Matches
// the collector would reject yield nothing, and participants whose features
// cannot be extracted are skipped.
func Samples(m *model.Match, ext *features.Extractor) []model.TrainingSample {
	mc := m.Context()
	var out []model.TrainingSample
	for _, p := range collector.Usable(m) {
		fv, err := ext.Extract(p, mc)
		if err != nil {
			continue
		}
		out = append(out, model.TrainingSample{
			MatchID:  mc.MatchID,
			PUUID:    p.PUUID,
			Champion: p.ChampionName,
			Role:     p.Role(),
			Win:      p.Win,
			Features: fv,
		})
	}
	return out
}

// Train labels samples and fits one model per role with enough data.
func (t *Trainer) Train(ctx context.Context, samples []model.TrainingSample) (*Result, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("train: no samples: %w", model.ErrInsufficientData)
	}
	calc := scoring.NewCalculator(samples)

	byRole := make(map[model.Role][]int)
	matches := make(map[string]struct{})
	for i, s := range samples {
		byRole[s.Role] = append(byRole[s.Role], i)
		matches[s.MatchID] = struct{}{}
	}

	res := &Result{
		Models: make(map[model.Role]*ml.Ensemble),
		Metadata: registry.Metadata{
			TrainingDate:   t.now().UTC(),
			TotalSamples:   len(samples),
			TotalMatches:   len(matches),
			FeatureColumns: t.params.Features,
			ModelParams:    t.params.Boost,
			RoleMetrics:    make(map[string]registry.RoleMetrics),
		},
	}

	for _, role := range model.Roles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		idx := byRole[role]
		log := t.log.With().Str("role", role.String()).Int("samples", len(idx)).Logger()
		if len(idx) < max(t.params.MinSamples, 2) {
			log.Warn().Int("min_samples", t.params.MinSamples).Msg("not enough samples, skipping role")
			continue
		}

		X := make([][]float64, len(idx))
		y := make([]float64, len(idx))
		for j, i := range idx {
			X[j] = samples[i].Features.Ordered(t.params.Features)
			y[j] = calc.Score(samples[i])
		}
		e, rm, err := t.fitRole(X, y)
		if err != nil {
			return nil, fmt.Errorf("train %s: %w", role, err)
		}
		res.Models[role] = e
		res.Metadata.Roles = append(res.Metadata.Roles, role.String())
		res.Metadata.RoleMetrics[role.String()] = rm
		log.Info().Float64("rmse", rm.RMSE).Float64("mae", rm.MAE).Float64("r2", rm.R2).Msg("role model trained")
	}

	if len(res.Models) == 0 {
		return nil, fmt.Errorf("train: no role reached %d samples: %w", t.params.MinSamples, model.ErrInsufficientData)
	}
	return res, nil
}

func (t *Trainer) fitRole(X [][]float64, y []float64) (*ml.Ensemble, registry.RoleMetrics, error) {
	trainIdx, testIdx := split(len(y), t.params.TestFraction, t.params.Boost.Seed)

	pick := func(idx []int) ([][]float64, []float64) {
		xs := make([][]float64, len(idx))
		ys := make([]float64, len(idx))
		for j, i := range idx {
			xs[j], ys[j] = X[i], y[i]
		}
		return xs, ys
	}
	Xtr, ytr := pick(trainIdx)
	Xte, yte := pick(testIdx)

	e, err := ml.FitEnsemble(Xtr, ytr, t.params.Features, t.params.Boost)
	if err != nil {
		return nil, registry.RoleMetrics{}, err
	}

	rm := registry.RoleMetrics{TrainSamples: len(trainIdx), TestSamples: len(testIdx)}
	if len(testIdx) > 0 {
		pred := make([]float64, len(Xte))
		for i, row := range Xte {
			pred[i] = e.Predict(row)
		}
		rm.RMSE = ml.RMSE(yte, pred)
		rm.MAE = ml.MAE(yte, pred)
		rm.R2 = ml.R2(yte, pred)
	}
	imp := e.FeatureImportance()
	for _, j := range ml.TopK(imp, topFeatureCount) {
		rm.TopFeatures = append(rm.TopFeatures, registry.FeatureImportance{
			Feature:    t.params.Features[j],
			Importance: imp[j],
		})
	}
	return e, rm, nil
}

// split shuffles 0..n-1 with seed and holds out ceil(n*frac) rows, always
// leaving at least one row to train on.
func split(n int, frac float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(math.Ceil(float64(n) * frac))
	if nTest < 0 {
		nTest = 0
	}
	if nTest > n-1 {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest]
}

// Save writes the result's models, manifest and metadata to store.
func Save(ctx context.Context, store registry.ArtifactStore, res *Result) error {
	return registry.Save(ctx, store, res.Metadata.FeatureColumns, res.Models, res.Metadata)
}
