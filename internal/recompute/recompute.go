// Package recompute decides whether a player's cached insights are stale
// enough to rerun the insight pipeline.
package recompute

import (
	"fmt"

	"github.com/pable/riftlens/internal/model"
)

// DefaultMinNewMatches is the number of unseen matches that triggers a rerun.
const DefaultMinNewMatches = 3

const (
	ReasonNoExisting = "no existing results"
	ReasonNoNew      = "no new matches"
)

// Decision is the outcome of Decide.
type Decision struct {
	Recompute bool
	Reason    string
	NewCount  int
}

// Policy holds the threshold. The zero value uses DefaultMinNewMatches.
type Policy struct {
	MinNewMatches int
}

// Decide compares the current match ids with the cached record:
// no record recomputes, an identical set skips, otherwise the number of ids
// not yet folded in must reach the threshold.
func (p Policy) Decide(current []string, cached *model.AnalysisCacheRecord) Decision {
	if cached == nil {
		return Decision{Recompute: true, Reason: ReasonNoExisting, NewCount: len(uniq(current))}
	}
	seen := uniq(cached.ProcessedMatchIDs)
	now := uniq(current)
	if sameSet(now, seen) {
		return Decision{Reason: ReasonNoNew}
	}

	var fresh int
	for id := range now {
		if _, ok := seen[id]; !ok {
			fresh++
		}
	}
	if fresh >= p.threshold() {
		return Decision{Recompute: true, Reason: fmt.Sprintf("%d new matches", fresh), NewCount: fresh}
	}
	return Decision{Reason: fmt.Sprintf("only %d new matches - using cache", fresh), NewCount: fresh}
}

func (p Policy) threshold() int {
	if p.MinNewMatches < 1 {
		return DefaultMinNewMatches
	}
	return p.MinNewMatches
}

func uniq(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
