package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pable/riftlens/internal/model"
)

type fakeSource struct {
	challengers []string
	history     map[string][]string
	matches     map[string]*model.Match
	fetched     []string
}

func (f *fakeSource) ChallengerPUUIDs(_ context.Context, limit int) ([]string, error) {
	return f.challengers, nil
}

func (f *fakeSource) MatchIDs(_ context.Context, puuid string, count, queue int) ([]string, error) {
	return f.history[puuid], nil
}

func (f *fakeSource) Match(_ context.Context, id string) (*model.Match, error) {
	f.fetched = append(f.fetched, id)
	m, ok := f.matches[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return m, nil
}

type fakeSink struct {
	stored map[string]*model.Match
}

func (s *fakeSink) MatchExists(id string) (bool, error) {
	_, ok := s.stored[id]
	return ok, nil
}

func (s *fakeSink) InsertMatch(m *model.Match) error {
	s.stored[m.Metadata.MatchID] = m
	return nil
}

func match(id, mode string, duration int, players ...[2]string) *model.Match {
	m := &model.Match{
		Metadata: model.MatchMetadata{MatchID: id},
		Info:     model.MatchInfo{GameMode: mode, GameDuration: duration},
	}
	for _, p := range players {
		m.Info.Participants = append(m.Info.Participants, model.ParticipantRecord{PUUID: p[0], IndividualPosition: p[1]})
	}
	return m
}

func newFixture() (*fakeSource, *fakeSink) {
	src := &fakeSource{
		history: map[string][]string{
			"s1": {"m1", "m2", "m3"},
			"a":  {"m1", "m4"},
		},
		matches: map[string]*model.Match{
			"m1": match("m1", "CLASSIC", 1800, [2]string{"s1", "TOP"}, [2]string{"a", "MIDDLE"}, [2]string{"b", "Invalid"}),
			"m2": match("m2", "CLASSIC", 200, [2]string{"s1", "TOP"}),
			"m3": match("m3", "ARAM", 1200, [2]string{"s1", "MIDDLE"}),
			"m4": match("m4", "CLASSIC", 1500, [2]string{"a", "MIDDLE"}, [2]string{"c", "UTILITY"}),
		},
	}
	return src, &fakeSink{stored: map[string]*model.Match{}}
}

func TestUsableFilters(t *testing.T) {
	src, _ := newFixture()
	if got := Usable(src.matches["m1"]); len(got) != 2 {
		t.Errorf("m1 usable = %d, want 2 (invalid position dropped)", len(got))
	}
	if got := Usable(src.matches["m2"]); got != nil {
		t.Errorf("short match should be rejected, got %d", len(got))
	}
	if got := Usable(src.matches["m3"]); got != nil {
		t.Errorf("non-classic match should be rejected, got %d", len(got))
	}
	if Usable(nil) != nil {
		t.Error("nil match should be rejected")
	}
}

func TestRunSnowball(t *testing.T) {
	src, sink := newFixture()
	p := DefaultParams()
	p.Matches = 10
	c := New(src, sink, p, zerolog.Nop())

	st, err := c.Run(context.Background(), []string{"s1"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.Matches != 2 {
		t.Errorf("Matches = %d, want 2", st.Matches)
	}
	if st.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", st.Skipped)
	}
	if st.Samples != 4 {
		t.Errorf("Samples = %d, want 4", st.Samples)
	}
	if st.Players != 3 {
		t.Errorf("Players = %d, want 3 (s1, a, c)", st.Players)
	}
	if _, ok := sink.stored["m4"]; !ok {
		t.Error("m4 reached through snowball should be stored")
	}
	// m1 appears in two histories but is fetched once.
	n := 0
	for _, id := range src.fetched {
		if id == "m1" {
			n++
		}
	}
	if n != 1 {
		t.Errorf("m1 fetched %d times, want 1", n)
	}
}

func TestRunStopsAtTarget(t *testing.T) {
	src, sink := newFixture()
	p := DefaultParams()
	p.Matches = 1
	st, err := New(src, sink, p, zerolog.Nop()).Run(context.Background(), []string{"s1"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.Matches != 1 || len(sink.stored) != 1 {
		t.Errorf("stored %d matches, want 1", len(sink.stored))
	}
}

func TestRunSkipsStoredMatches(t *testing.T) {
	src, sink := newFixture()
	sink.stored["m1"] = src.matches["m1"]
	p := DefaultParams()
	p.Matches = 10
	st, err := New(src, sink, p, zerolog.Nop()).Run(context.Background(), []string{"s1"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.Existing != 1 {
		t.Errorf("Existing = %d, want 1", st.Existing)
	}
	if st.Matches != 0 {
		t.Errorf("Matches = %d, want 0 (no new players reachable)", st.Matches)
	}
}

func TestRunChallengerSeeds(t *testing.T) {
	src, sink := newFixture()
	src.challengers = []string{"s1"}
	p := DefaultParams()
	p.Matches = 10
	st, err := New(src, sink, p, zerolog.Nop()).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.Matches != 2 {
		t.Errorf("Matches = %d, want 2", st.Matches)
	}
}

func TestRunNoSeeds(t *testing.T) {
	src, sink := newFixture()
	if _, err := New(src, sink, DefaultParams(), zerolog.Nop()).Run(context.Background(), nil); err == nil {
		t.Error("expected error with no seeds")
	}
}

func TestQueueCap(t *testing.T) {
	src, sink := newFixture()
	p := DefaultParams()
	p.QueueCap = 1
	c := New(src, sink, p, zerolog.Nop())
	q := c.enqueue(nil, "x")
	q = c.enqueue(q, "y")
	if len(q) != 1 || q[0] != "x" {
		t.Errorf("queue = %v, want [x]", q)
	}
	if q = c.enqueue(q[:0], "x"); len(q) != 0 {
		t.Errorf("re-queueing a seen player: %v", q)
	}
}
