// Package metrics holds the Prometheus counters the engine increments. Each
// Metrics owns a private registry so tests and concurrent CLI runs never
// share global state. A nil *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const namespace = "riftlens"

type Metrics struct {
	reg *prometheus.Registry

	Predictions         *prometheus.CounterVec
	FeaturesDefaulted   *prometheus.CounterVec
	RecomputeDecisions  *prometheus.CounterVec
	InsightRuns         *prometheus.CounterVec
	SubanalysisFailures *prometheus.CounterVec
	RiotRequests        *prometheus.CounterVec
}

// New builds a Metrics with every counter registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Performance predictions by role and outcome.",
		}, []string{"role", "outcome"}),
		FeaturesDefaulted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_defaulted_total",
			Help:      "Source fields absent from a participant record and defaulted to zero.",
		}, []string{"field"}),
		RecomputeDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recompute_decisions_total",
			Help:      "Recompute decisions by result.",
		}, []string{"decision"}),
		InsightRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insight_runs_total",
			Help:      "Insight pipeline invocations by result.",
		}, []string{"result"}),
		SubanalysisFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subanalysis_failures_total",
			Help:      "Insight sub-analyses that reported an error.",
		}, []string{"analysis"}),
		RiotRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "riot_requests_total",
			Help:      "Riot API requests by HTTP status class.",
		}, []string{"status"}),
	}
	m.reg.MustRegister(
		m.Predictions,
		m.FeaturesDefaulted,
		m.RecomputeDecisions,
		m.InsightRuns,
		m.SubanalysisFailures,
		m.RiotRequests,
	)
	return m
}

// Registry exposes the underlying registry (tests, exporters).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) ObservePrediction(role, outcome string) {
	if m == nil {
		return
	}
	m.Predictions.WithLabelValues(role, outcome).Inc()
}

func (m *Metrics) ObserveDefaulted(fields []string) {
	if m == nil {
		return
	}
	for _, f := range fields {
		m.FeaturesDefaulted.WithLabelValues(f).Inc()
	}
}

func (m *Metrics) ObserveRecompute(recompute bool) {
	if m == nil {
		return
	}
	decision := "skip"
	if recompute {
		decision = "recompute"
	}
	m.RecomputeDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) ObserveInsightRun(result string) {
	if m == nil {
		return
	}
	m.InsightRuns.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveSubanalysisFailure(name string) {
	if m == nil {
		return
	}
	m.SubanalysisFailures.WithLabelValues(name).Inc()
}

// ObserveRiotRequest records one HTTP round trip, bucketed as "2xx", "4xx", etc.
// A status of 0 means a transport error.
func (m *Metrics) ObserveRiotRequest(status int) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = fmt.Sprintf("%dxx", status/100)
	}
	m.RiotRequests.WithLabelValues(label).Inc()
}

// Families gathers the current value of every registered metric.
func (m *Metrics) Families() ([]*dto.MetricFamily, error) {
	if m == nil {
		return nil, nil
	}
	mfs, err := m.reg.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	return mfs, nil
}

// WriteText writes every metric family in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	mfs, err := m.Families()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// DumpFile writes the text exposition to path, replacing any existing file.
func (m *Metrics) DumpFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	if err := m.WriteText(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
