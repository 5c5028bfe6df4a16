// Package collector gathers training matches by snowball sampling: start
// from seed players, pull their recent matches, and queue every player seen
// in those matches.
package collector

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/rs/zerolog"

	"github.com/pable/riftlens/internal/model"
)

const (
	// MinDurationSeconds drops remakes and early surrenders.
	MinDurationSeconds = 300
	ClassicMode        = "CLASSIC"
	RankedSoloQueue    = 420
)

// Source is the remote match source.
type Source interface {
	ChallengerPUUIDs(ctx context.Context, limit int) ([]string, error)
	MatchIDs(ctx context.Context, puuid string, count, queue int) ([]string, error)
	Match(ctx context.Context, matchID string) (*model.Match, error)
}

// Sink persists accepted matches.
type Sink interface {
	MatchExists(matchID string) (bool, error)
	InsertMatch(m *model.Match) error
}

type Params struct {
	Matches          int // stop after this many accepted matches
	MatchesPerPlayer int
	QueueCap         int
	SeedLimit        int // challenger seeds taken when none are given
	Queue            int // match-v5 queue filter, 0 for any
	Seed             int64
}

func DefaultParams() Params {
	return Params{
		Matches:          5000,
		MatchesPerPlayer: 20,
		QueueCap:         200,
		SeedLimit:        50,
		Queue:            RankedSoloQueue,
		Seed:             42,
	}
}

// Stats summarises one collection run.
type Stats struct {
	Matches  int // accepted and stored
	Samples  int // participants with a usable role across accepted matches
	Skipped  int // fetched but rejected by the filters
	Existing int // already in the store
	Players  int // players whose history was pulled
	Errors   int
}

type Collector struct {
	src    Source
	sink   Sink
	params Params
	log    zerolog.Logger

	visitedMatches *bloom.BloomFilter
	visitedPlayers *bloom.BloomFilter
}

func New(src Source, sink Sink, params Params, log zerolog.Logger) *Collector {
	if params.MatchesPerPlayer <= 0 {
		params.MatchesPerPlayer = 20
	}
	if params.QueueCap <= 0 {
		params.QueueCap = 200
	}
	return &Collector{
		src:            src,
		sink:           sink,
		params:         params,
		log:            log,
		visitedMatches: bloom.NewWithEstimates(500000, 0.001),
		visitedPlayers: bloom.NewWithEstimates(1000000, 0.001),
	}
}

// Usable returns the participants of m that can become training samples, or
// nil when the whole match is rejected (too short or not a CLASSIC game).
func Usable(m *model.Match) []*model.ParticipantRecord {
	if m == nil || m.Info.GameDuration < MinDurationSeconds || m.Info.GameMode != ClassicMode {
		return nil
	}
	var out []*model.ParticipantRecord
	for i := range m.Info.Participants {
		p := &m.Info.Participants[i]
		if p.Role().Supported() {
			out = append(out, p)
		}
	}
	return out
}

// Run collects until Params.Matches matches are stored or the player queue
// drains. With no seeds the challenger league is used.
func (c *Collector) Run(ctx context.Context, seeds []string) (Stats, error) {
	var st Stats
	if len(seeds) == 0 {
		var err error
		seeds, err = c.src.ChallengerPUUIDs(ctx, c.params.SeedLimit)
		if err != nil {
			return st, fmt.Errorf("seed players: %w", err)
		}
	}
	if len(seeds) == 0 {
		return st, errors.New("no seed players")
	}

	queue := make([]string, 0, c.params.QueueCap)
	for _, p := range seeds {
		queue = c.enqueue(queue, p)
	}
	rng := rand.New(rand.NewSource(c.params.Seed))
	rng.Shuffle(len(queue), func(i, j int) { queue[i], queue[j] = queue[j], queue[i] })

	for len(queue) > 0 && st.Matches < c.params.Matches {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		puuid := queue[0]
		queue = queue[1:]
		st.Players++

		ids, err := c.src.MatchIDs(ctx, puuid, c.params.MatchesPerPlayer, c.params.Queue)
		if err != nil {
			if ctx.Err() != nil {
				return st, ctx.Err()
			}
			st.Errors++
			c.log.Warn().Err(err).Str("puuid", puuid).Msg("match history failed")
			continue
		}

		for _, id := range ids {
			if st.Matches >= c.params.Matches {
				break
			}
			if c.visitedMatches.TestString(id) {
				continue
			}
			c.visitedMatches.AddString(id)

			if ok, err := c.sink.MatchExists(id); err != nil {
				return st, fmt.Errorf("check match %s: %w", id, err)
			} else if ok {
				st.Existing++
				continue
			}

			m, err := c.src.Match(ctx, id)
			if err != nil {
				if ctx.Err() != nil {
					return st, ctx.Err()
				}
				st.Errors++
				c.log.Warn().Err(err).Str("match_id", id).Msg("match fetch failed")
				continue
			}
			usable := Usable(m)
			if len(usable) == 0 {
				st.Skipped++
				continue
			}
			if err := c.sink.InsertMatch(m); err != nil {
				return st, fmt.Errorf("store match %s: %w", id, err)
			}
			st.Matches++
			st.Samples += len(usable)
			for _, p := range usable {
				queue = c.enqueue(queue, p.PUUID)
			}
			c.log.Debug().Str("match_id", id).Int("samples", len(usable)).Int("queued", len(queue)).Msg("match stored")
		}
		c.log.Info().Int("matches", st.Matches).Int("target", c.params.Matches).Int("samples", st.Samples).Msg("progress")
	}
	return st, nil
}

// enqueue adds puuid unless it was queued before or the queue is full.
func (c *Collector) enqueue(queue []string, puuid string) []string {
	if puuid == "" || len(queue) >= c.params.QueueCap || c.visitedPlayers.TestString(puuid) {
		return queue
	}
	c.visitedPlayers.AddString(puuid)
	return append(queue, puuid)
}
