package recompute

import (
	"testing"

	"github.com/pable/riftlens/internal/model"
)

func cached(ids ...string) *model.AnalysisCacheRecord {
	return &model.AnalysisCacheRecord{ProcessedMatchIDs: ids}
}

func TestDecide(t *testing.T) {
	cases := []struct {
		name       string
		current    []string
		record     *model.AnalysisCacheRecord
		wantRerun  bool
		wantReason string
	}{
		{"no record", []string{"A"}, nil, true, "no existing results"},
		{"identical", []string{"A", "B", "C"}, cached("A", "B", "C"), false, "no new matches"},
		{"identical reordered", []string{"C", "A", "B"}, cached("A", "B", "C"), false, "no new matches"},
		{"three new", []string{"A", "B", "C", "D", "E", "F"}, cached("A", "B", "C"), true, "3 new matches"},
		{"one new", []string{"A", "B", "D"}, cached("A", "B", "C"), false, "only 1 new matches - using cache"},
		{"only dropped", []string{"A", "B"}, cached("A", "B", "C"), false, "only 0 new matches - using cache"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Policy{}.Decide(c.current, c.record)
			if got.Recompute != c.wantRerun {
				t.Errorf("Recompute = %v, want %v", got.Recompute, c.wantRerun)
			}
			if got.Reason != c.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, c.wantReason)
			}
		})
	}
}

func TestDecideCustomThreshold(t *testing.T) {
	p := Policy{MinNewMatches: 1}
	if d := p.Decide([]string{"A", "B", "D"}, cached("A", "B", "C")); !d.Recompute || d.NewCount != 1 {
		t.Errorf("expected recompute with 1 new match, got %+v", d)
	}
}
