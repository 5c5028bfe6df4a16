package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/riftlens/internal/insight"
	"github.com/pable/riftlens/internal/model"
	"github.com/pable/riftlens/internal/riot"
)

var player = Player{GameName: "Faker", TagLine: "KR1", PUUID: "p-1"}

type fakeSource struct {
	ids     []string
	matches map[string]*model.Match
	loads   int
}

func (f *fakeSource) RecentMatchIDs(context.Context, string, int) ([]string, error) {
	return f.ids, nil
}

func (f *fakeSource) Match(_ context.Context, id string) (*model.Match, error) {
	f.loads++
	return f.matches[id], nil
}

type memCache struct {
	recs   map[string]*model.AnalysisCacheRecord
	puts   int
	getErr error
}

func (c *memCache) Get(_ context.Context, key string) (*model.AnalysisCacheRecord, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.recs[key], nil
}

func (c *memCache) Put(_ context.Context, rec *model.AnalysisCacheRecord) error {
	c.puts++
	c.recs[rec.PlayerKey] = rec
	return nil
}

type memResults struct{ saved []*model.PlayerAnalysis }

func (r *memResults) SaveAnalysis(_ context.Context, a *model.PlayerAnalysis) error {
	r.saved = append(r.saved, a)
	return nil
}

// playerMatch builds a match where the player won when win is set; created
// orders matches in time.
func playerMatch(id string, created int64, win bool, i int) *model.Match {
	return &model.Match{
		Metadata: model.MatchMetadata{MatchID: id},
		Info: model.MatchInfo{
			GameCreation: created,
			GameDuration: 1500 + 60*i,
			GameMode:     "CLASSIC",
			Participants: []model.ParticipantRecord{{
				PUUID:                       player.PUUID,
				RiotIDGameName:              player.GameName,
				RiotIDTagline:               player.TagLine,
				ChampionName:                []string{"Ahri", "Syndra", "Ahri", "Orianna", "Ahri"}[i%5],
				IndividualPosition:          "MIDDLE",
				Win:                         win,
				Kills:                       3 + i,
				Deaths:                      1 + i%3,
				Assists:                     5 + 2*i,
				TotalMinionsKilled:          150 + 10*i,
				GoldEarned:                  9000 + 500*i,
				TotalDamageDealtToChampions: 15000 + 2000*i,
				VisionScore:                 15 + i,
			}},
		},
	}
}

// fixture returns five matches listed newest first, as Riot does.
func fixture() *fakeSource {
	src := &fakeSource{matches: map[string]*model.Match{}}
	wins := []bool{true, false, true, true, false}
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("KR_%d", i+1)
		src.matches[id] = playerMatch(id, int64(1000+i), wins[i], i)
	}
	src.ids = []string{"KR_5", "KR_4", "KR_3", "KR_2", "KR_1"}
	return src
}

func newService(src MatchSource, c *memCache, r *memResults) *Service {
	s := New(src, c,
		WithResults(r),
		WithPipeline(insight.New(insight.WithParallelism(1))),
		WithLogger(zerolog.Nop()),
	)
	n := 0
	s.newID = func() string { n++; return fmt.Sprintf("run-%d", n) }
	s.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func TestAnalyzeFirstRunRecomputes(t *testing.T) {
	src := fixture()
	c := &memCache{recs: map[string]*model.AnalysisCacheRecord{}}
	r := &memResults{}

	out, err := newService(src, c, r).Analyze(context.Background(), player)
	require.NoError(t, err)

	assert.False(t, out.Cached)
	assert.Equal(t, "no existing results", out.CacheReason)
	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, "Faker_KR1_p-1", out.PlayerKey)
	assert.Equal(t, 5, out.Insights.Statistics.TotalGames)
	assert.InDelta(t, 0.6, out.Insights.Statistics.WinRate, 1e-9)
	assert.Equal(t, "Analysis for Faker#KR1: 60.0% win rate across 5 games.", out.Narrative)

	rec := c.recs[player.Key()]
	require.NotNil(t, rec)
	assert.Equal(t, []string{"KR_1", "KR_2", "KR_3", "KR_4", "KR_5"}, rec.ProcessedMatchIDs)
	assert.Equal(t, 5, rec.NumMatchesAnalyzed)
	assert.Equal(t, "run-1", rec.RunID)
	require.Len(t, r.saved, 1)
}

func TestUnusableMatchesStayNew(t *testing.T) {
	src := fixture()
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("KR_X%d", i)
		m := playerMatch(id, int64(2000+i), true, i)
		m.Info.Participants[0].PUUID = "someone-else"
		src.matches[id] = m
		src.ids = append([]string{id}, src.ids...)
	}
	c := &memCache{recs: map[string]*model.AnalysisCacheRecord{}}
	var logs bytes.Buffer

	svc := newService(src, c, &memResults{})
	svc.log = zerolog.New(&logs).Level(zerolog.DebugLevel)

	_, err := svc.Analyze(context.Background(), player)
	require.NoError(t, err)
	assert.Equal(t, []string{"KR_1", "KR_2", "KR_3", "KR_4", "KR_5"}, c.recs[player.Key()].ProcessedMatchIDs)
	assert.Contains(t, logs.String(), "player not in match")
	assert.Contains(t, logs.String(), "not recorded as processed")
	assert.Contains(t, logs.String(), "KR_X0")

	out, err := svc.Analyze(context.Background(), player)
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.Equal(t, "3 new matches", out.CacheReason)
}

func TestAnalyzeUsesCacheWhenNothingNew(t *testing.T) {
	src := fixture()
	c := &memCache{recs: map[string]*model.AnalysisCacheRecord{}}
	r := &memResults{}
	svc := newService(src, c, r)

	_, err := svc.Analyze(context.Background(), player)
	require.NoError(t, err)
	loads := src.loads

	out, err := svc.Analyze(context.Background(), player)
	require.NoError(t, err)
	assert.True(t, out.Cached)
	assert.Equal(t, "no new matches", out.CacheReason)
	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, 1, c.puts)
	assert.Equal(t, loads, src.loads, "cached run must not load matches")
	assert.Len(t, r.saved, 2)
}

func TestAnalyzeFewNewMatchesKeepsCache(t *testing.T) {
	src := fixture()
	c := &memCache{recs: map[string]*model.AnalysisCacheRecord{}}
	svc := newService(src, c, &memResults{})
	_, err := svc.Analyze(context.Background(), player)
	require.NoError(t, err)

	src.matches["KR_6"] = playerMatch("KR_6", 2000, true, 5)
	src.ids = append([]string{"KR_6"}, src.ids[:4]...)

	out, err := svc.Analyze(context.Background(), player)
	require.NoError(t, err)
	assert.True(t, out.Cached)
	assert.Equal(t, "only 1 new matches - using cache", out.CacheReason)
	assert.Equal(t, []string{"KR_1", "KR_2", "KR_3", "KR_4", "KR_5"}, c.recs[player.Key()].ProcessedMatchIDs)
}

func TestAnalyzeSkipsMissingMatches(t *testing.T) {
	src := fixture()
	src.ids = append([]string{"KR_gone"}, src.ids...)
	c := &memCache{recs: map[string]*model.AnalysisCacheRecord{}}

	_, err := newService(src, c, &memResults{}).Analyze(context.Background(), player)
	require.NoError(t, err)
	rec := c.recs[player.Key()]
	assert.NotContains(t, rec.ProcessedMatchIDs, "KR_gone")
	assert.Len(t, rec.ProcessedMatchIDs, 5)
}

func TestAnalyzeInsufficientData(t *testing.T) {
	src := fixture()
	src.ids = []string{"KR_1", "KR_2"}
	c := &memCache{recs: map[string]*model.AnalysisCacheRecord{}}
	r := &memResults{}

	_, err := newService(src, c, r).Analyze(context.Background(), player)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInsufficientData))
	assert.Zero(t, c.puts)
	assert.Empty(t, r.saved)
}

func TestAnalyzeCacheErrorSurfaces(t *testing.T) {
	boom := errors.New("redis down")
	c := &memCache{recs: map[string]*model.AnalysisCacheRecord{}, getErr: boom}
	_, err := newService(fixture(), c, &memResults{}).Analyze(context.Background(), player)
	assert.ErrorIs(t, err, boom)
}

type fakeStore struct {
	matches  map[string]*model.Match
	inserted []string
}

func (s *fakeStore) GetMatch(_ context.Context, id string) (*model.Match, error) {
	return s.matches[id], nil
}

func (s *fakeStore) InsertMatch(m *model.Match) error {
	s.inserted = append(s.inserted, m.Metadata.MatchID)
	s.matches[m.Metadata.MatchID] = m
	return nil
}

func (s *fakeStore) MatchIDsForPlayer(string, int) ([]string, error) {
	return []string{"KR_2", "KR_1"}, nil
}

type fakeRemote struct {
	matches map[string]*model.Match
	fetched []string
}

func (r *fakeRemote) MatchIDs(context.Context, string, int, int) ([]string, error) {
	return []string{"KR_1"}, nil
}

func (r *fakeRemote) Match(_ context.Context, id string) (*model.Match, error) {
	r.fetched = append(r.fetched, id)
	m, ok := r.matches[id]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", id, riot.ErrNotFound)
	}
	return m, nil
}

func TestRiotSourceCachesLocally(t *testing.T) {
	store := &fakeStore{matches: map[string]*model.Match{}}
	remote := &fakeRemote{matches: map[string]*model.Match{"KR_1": playerMatch("KR_1", 1, true, 0)}}
	src := RiotSource{Client: remote, Store: store}
	ctx := context.Background()

	m, err := src.Match(ctx, "KR_1")
	require.NoError(t, err)
	require.NotNil(t, m)
	_, err = src.Match(ctx, "KR_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"KR_1"}, remote.fetched)
	assert.Equal(t, []string{"KR_1"}, store.inserted)

	m, err = src.Match(ctx, "KR_404")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestStoreSource(t *testing.T) {
	store := &fakeStore{matches: map[string]*model.Match{"KR_1": playerMatch("KR_1", 1, true, 0)}}
	src := StoreSource{Store: store}
	ids, err := src.RecentMatchIDs(context.Background(), "p-1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"KR_2", "KR_1"}, ids)
	m, err := src.Match(context.Background(), "KR_2")
	require.NoError(t, err)
	assert.Nil(t, m)
}
