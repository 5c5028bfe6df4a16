package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/pable/riftlens/internal/model"
	"github.com/pable/riftlens/internal/riot"
)

// LocalStore is the slice of the SQLite store the sources read and write.
type LocalStore interface {
	GetMatch(ctx context.Context, matchID string) (*model.Match, error)
	InsertMatch(m *model.Match) error
	MatchIDsForPlayer(puuid string, limit int) ([]string, error)
}

// RemoteClient is the slice of the Riot client the online source uses.
type RemoteClient interface {
	MatchIDs(ctx context.Context, puuid string, count, queue int) ([]string, error)
	Match(ctx context.Context, matchID string) (*model.Match, error)
}

// RiotSource lists matches from Riot and loads them through the local store:
// a stored match is never fetched twice, and every fetched match is kept.
type RiotSource struct {
	Client RemoteClient
	Store  LocalStore // optional
	Queue  int        // match-v5 queue filter, 0 for any
}

func (s RiotSource) RecentMatchIDs(ctx context.Context, puuid string, count int) ([]string, error) {
	return s.Client.MatchIDs(ctx, puuid, count, s.Queue)
}

func (s RiotSource) Match(ctx context.Context, matchID string) (*model.Match, error) {
	if s.Store != nil {
		m, err := s.Store.GetMatch(ctx, matchID)
		if err != nil {
			return nil, fmt.Errorf("read stored match: %w", err)
		}
		if m != nil {
			return m, nil
		}
	}
	m, err := s.Client.Match(ctx, matchID)
	if errors.Is(err, riot.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.Store != nil {
		if err := s.Store.InsertMatch(m); err != nil {
			return nil, fmt.Errorf("store match: %w", err)
		}
	}
	return m, nil
}

// StoreSource serves requests from previously fetched matches only.
type StoreSource struct {
	Store LocalStore
}

func (s StoreSource) RecentMatchIDs(_ context.Context, puuid string, count int) ([]string, error) {
	return s.Store.MatchIDsForPlayer(puuid, count)
}

func (s StoreSource) Match(ctx context.Context, matchID string) (*model.Match, error) {
	return s.Store.GetMatch(ctx, matchID)
}
