// Package analysis answers one player-analysis request: decide whether the
// cached insights are still good, rerun the insight pipeline when they are
// not, and attach a narrative summary.
package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pable/riftlens/internal/cache"
	"github.com/pable/riftlens/internal/features"
	"github.com/pable/riftlens/internal/insight"
	"github.com/pable/riftlens/internal/metrics"
	"github.com/pable/riftlens/internal/model"
	"github.com/pable/riftlens/internal/narrative"
	"github.com/pable/riftlens/internal/recompute"
)

// DefaultMatchCount is how many recent matches a request looks at.
const DefaultMatchCount = 20

// Player identifies the subject of a request.
type Player struct {
	GameName string
	TagLine  string
	PUUID    string
}

func (p Player) RiotID() string { return p.GameName + "#" + p.TagLine }

// Key is the player's cache address.
func (p Player) Key() string { return cache.PlayerKey(p.GameName, p.TagLine, p.PUUID) }

// MatchSource lists and loads a player's matches. Match returns nil, nil for
// a match the source does not have.
type MatchSource interface {
	RecentMatchIDs(ctx context.Context, puuid string, count int) ([]string, error)
	Match(ctx context.Context, matchID string) (*model.Match, error)
}

// ResultStore keeps the final per-request documents.
type ResultStore interface {
	SaveAnalysis(ctx context.Context, a *model.PlayerAnalysis) error
}

type Service struct {
	src        MatchSource
	cache      cache.Store
	policy     recompute.Policy
	pipeline   *insight.Pipeline
	extractor  *features.Extractor
	narrator   *narrative.Writer
	results    ResultStore
	matchCount int

	log     zerolog.Logger
	metrics *metrics.Metrics
	newID   func() string
	now     func() time.Time
}

type Option func(*Service)

func WithPolicy(p recompute.Policy) Option { return func(s *Service) { s.policy = p } }
func WithPipeline(p *insight.Pipeline) Option { return func(s *Service) { s.pipeline = p } }
func WithExtractor(e *features.Extractor) Option { return func(s *Service) { s.extractor = e } }
func WithNarrator(w *narrative.Writer) Option { return func(s *Service) { s.narrator = w } }
func WithResults(r ResultStore) Option { return func(s *Service) { s.results = r } }
func WithMatchCount(n int) Option { return func(s *Service) { s.matchCount = n } }
func WithLogger(log zerolog.Logger) Option { return func(s *Service) { s.log = log } }
func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func New(src MatchSource, store cache.Store, opts ...Option) *Service {
	s := &Service{
		src:        src,
		cache:      store,
		matchCount: DefaultMatchCount,
		log:        zerolog.Nop(),
		newID:      func() string { return uuid.New().String() },
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.pipeline == nil {
		s.pipeline = insight.New(insight.WithLogger(s.log), insight.WithMetrics(s.metrics))
	}
	if s.extractor == nil {
		s.extractor = features.NewExtractor(s.log, s.metrics)
	}
	if s.matchCount <= 0 {
		s.matchCount = DefaultMatchCount
	}
	return s
}

// Analyze runs one request for p. Match-source, cache and result-store
// failures are returned; a history too short for the pipeline fails with
// model.ErrInsufficientData.
func (s *Service) Analyze(ctx context.Context, p Player) (*model.PlayerAnalysis, error) {
	key := p.Key()
	log := s.log.With().Str("player", p.RiotID()).Logger()

	ids, err := s.src.RecentMatchIDs(ctx, p.PUUID, s.matchCount)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}

	dec := s.policy.Decide(ids, cached)
	s.metrics.ObserveRecompute(dec.Recompute)
	log.Info().Bool("recompute", dec.Recompute).Str("reason", dec.Reason).Int("matches", len(ids)).Msg("recompute decision")

	rec := cached
	if dec.Recompute {
		rec, err = s.recompute(ctx, p, ids, dec.Reason)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Put(ctx, rec); err != nil {
			return nil, fmt.Errorf("write cache: %w", err)
		}
	}

	out := &model.PlayerAnalysis{
		PlayerKey:   key,
		RiotID:      p.RiotID(),
		Insights:    rec.Insights,
		Narrative:   s.narrator.Write(ctx, narrative.NewDigest(p.RiotID(), &rec.Insights)),
		Cached:      !dec.Recompute,
		CacheReason: dec.Reason,
		ProcessedAt: s.now().UTC(),
		RunID:       rec.RunID,
	}
	if s.results != nil {
		if err := s.results.SaveAnalysis(ctx, out); err != nil {
			return nil, fmt.Errorf("save analysis: %w", err)
		}
	}
	return out, nil
}

// recompute loads every listed match, folds the player's samples through
// the pipeline and builds the new cache record. Only matches that produced
// a sample are recorded as processed: an id that is unavailable, lacks the
// player or fails extraction stays "new" for the recompute policy, so it is
// retried (and counted) on every later request.
func (s *Service) recompute(ctx context.Context, p Player, ids []string, reason string) (*model.AnalysisCacheRecord, error) {
	type dated struct {
		sample  insight.Sample
		created int64
	}
	var rows []dated
	var unfolded []string
	for _, id := range ids {
		m, err := s.src.Match(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load match %s: %w", id, err)
		}
		if m == nil {
			s.log.Debug().Str("match_id", id).Msg("match unavailable, skipping")
			unfolded = append(unfolded, id)
			continue
		}
		rec := m.Participant(p.PUUID)
		if rec == nil {
			s.log.Debug().Str("match_id", id).Msg("player not in match, skipping")
			unfolded = append(unfolded, id)
			continue
		}
		mc := m.Context()
		fv, err := s.extractor.Extract(rec, mc)
		if err != nil {
			s.log.Warn().Err(err).Str("match_id", id).Msg("feature extraction failed, skipping match")
			unfolded = append(unfolded, id)
			continue
		}
		rows = append(rows, dated{
			sample:  insight.Sample{MatchID: mc.MatchID, Champion: rec.ChampionName, Win: rec.Win, Features: fv},
			created: mc.GameCreation,
		})
	}
	if len(unfolded) > 0 {
		s.log.Debug().Strs("match_ids", unfolded).
			Msg("matches not recorded as processed; they count as new on the next request")
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].created < rows[j].created })

	samples := make([]insight.Sample, len(rows))
	folded := make([]string, len(rows))
	for i, r := range rows {
		samples[i] = r.sample
		folded[i] = r.sample.MatchID
	}

	res, err := s.pipeline.Run(ctx, samples)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", p.RiotID(), err)
	}
	return &model.AnalysisCacheRecord{
		PlayerKey:          p.Key(),
		RunID:              s.newID(),
		ProcessedMatchIDs:  folded,
		LastUpdated:        s.now().UTC(),
		NumMatchesAnalyzed: len(samples),
		RecomputeReason:    reason,
		Insights:           res,
	}, nil
}
