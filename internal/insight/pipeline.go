// Package insight runs the fixed battery of statistical analyses over one
// player's match history.
package insight

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pable/riftlens/internal/features"
	"github.com/pable/riftlens/internal/metrics"
	"github.com/pable/riftlens/internal/model"
)

// MinSamples is the smallest history the pipeline accepts.
const MinSamples = 3

// Sample is one analysed match. Samples are ordered oldest first, so the
// last element is the most recent game.
type Sample struct {
	MatchID  string
	Champion string
	Win      bool
	Features model.FeatureVector
}

// Pipeline is stateless apart from its configuration and safe to share.
type Pipeline struct {
	columns     []string
	parallelism int
	log         zerolog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Pipeline)

// WithParallelism bounds concurrent sub-analyses. 1 runs them in order.
func WithParallelism(n int) Option {
	return func(p *Pipeline) { p.parallelism = n }
}

func WithLogger(log zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		columns:     features.InsightColumns,
		parallelism: 4,
		log:         zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	if p.parallelism < 1 {
		p.parallelism = 1
	}
	p.log = p.log.With().Str("component", "insight").Logger()
	return p
}

// Run executes every sub-analysis. Fewer than MinSamples samples fails with
// model.ErrInsufficientData; any other failure is recorded in the matching
// sub-result's Error field.
func (p *Pipeline) Run(ctx context.Context, samples []Sample) (model.InsightResults, error) {
	var res model.InsightResults
	if len(samples) < MinSamples {
		p.metrics.ObserveInsightRun("insufficient_data")
		return res, fmt.Errorf("%w: %d samples, need %d", model.ErrInsufficientData, len(samples), MinSamples)
	}

	d := newDataset(samples, p.columns)
	tasks := []struct {
		name string
		run  func() string
	}{
		{"pca", func() string { res.PCA = runPCA(d); return res.PCA.Error }},
		{"clustering", func() string { res.Clustering = runClustering(d); return res.Clustering.Error }},
		{"linear_regression", func() string { res.LinearRegression = runLinearRegression(d); return res.LinearRegression.Error }},
		{"logistic_regression", func() string { res.LogisticRegression = runLogisticRegression(d); return res.LogisticRegression.Error }},
		{"knn", func() string { res.KNN = runKNN(d); return res.KNN.Error }},
		{"decision_tree", func() string { res.DecisionTree = runDecisionTree(d); return res.DecisionTree.Error }},
		{"statistics", func() string { res.Statistics = runStatistics(d); return res.Statistics.Error }},
	}

	// Each task writes only its own field of res.
	errs := make([]string, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)
	for i, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			errs[i] = guard(task.run)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.InsightResults{}, fmt.Errorf("insight pipeline: %w", err)
	}

	// A panicked task never assigned its result, so errors are applied here.
	for i, task := range tasks {
		if errs[i] == "" {
			continue
		}
		setError(&res, task.name, errs[i])
		p.log.Warn().Str("analysis", task.name).Str("error", errs[i]).Msg("sub-analysis failed")
		p.metrics.ObserveSubanalysisFailure(task.name)
	}
	p.metrics.ObserveInsightRun("ok")
	return res, nil
}

// guard runs fn, turning a panic into an error message.
func guard(fn func() string) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprintf("panic: %v", r)
		}
	}()
	return fn()
}

func setError(res *model.InsightResults, name, msg string) {
	switch name {
	case "pca":
		res.PCA.Error = msg
	case "clustering":
		res.Clustering.Error = msg
	case "linear_regression":
		res.LinearRegression.Error = msg
	case "logistic_regression":
		res.LogisticRegression.Error = msg
	case "knn":
		res.KNN.Error = msg
	case "decision_tree":
		res.DecisionTree.Error = msg
	case "statistics":
		res.Statistics.Error = msg
	}
}

// dataset is the column-ordered view every analysis reads. It is never
// mutated after construction.
type dataset struct {
	names   []string
	X       [][]float64
	y       []int
	samples []Sample
}

func newDataset(samples []Sample, names []string) *dataset {
	d := &dataset{names: names, samples: samples}
	for _, s := range samples {
		d.X = append(d.X, s.Features.Ordered(names))
		win := 0
		if s.Win {
			win = 1
		}
		d.y = append(d.y, win)
	}
	return d
}

func (d *dataset) col(name string) int {
	return features.Index(d.names, name)
}
