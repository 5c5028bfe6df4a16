package cmd

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/pable/riftlens/internal/analysis"
	"github.com/pable/riftlens/internal/cache"
	"github.com/pable/riftlens/internal/collector"
	"github.com/pable/riftlens/internal/predictor"
	"github.com/pable/riftlens/internal/registry"
	"github.com/pable/riftlens/internal/riot"
	"github.com/pable/riftlens/internal/storage"
)

func newRiotClient() (*riot.Client, error) {
	c, err := riot.NewClient(cfg.Riot, riot.WithLogger(logger), riot.WithMetrics(mets))
	if err != nil {
		return nil, fmt.Errorf("riot client: %w", err)
	}
	return c, nil
}

// matchSource reads from the local store when offline and from Riot
// (through the local store) otherwise.
func matchSource(db *storage.DB, offline bool) (analysis.MatchSource, error) {
	if offline {
		return analysis.StoreSource{Store: db}, nil
	}
	client, err := newRiotClient()
	if err != nil {
		return nil, err
	}
	return analysis.RiotSource{Client: client, Store: db, Queue: collector.RankedSoloQueue}, nil
}

// resolvePlayer turns "Name#TAG" into a Player. Offline lookups only know
// players that appear in stored matches.
func resolvePlayer(ctx context.Context, db *storage.DB, riotID string, offline bool) (analysis.Player, error) {
	name, tag, err := riot.ParseRiotID(riotID)
	if err != nil {
		return analysis.Player{}, err
	}
	if offline {
		puuid, err := db.FindPUUID(name + "#" + tag)
		if err != nil {
			return analysis.Player{}, fmt.Errorf("find player: %w", err)
		}
		if puuid == "" {
			return analysis.Player{}, fmt.Errorf("player %s#%s not found in %s; run 'riftlens fetch' first", name, tag, dbPath)
		}
		return analysis.Player{GameName: name, TagLine: tag, PUUID: puuid}, nil
	}
	client, err := newRiotClient()
	if err != nil {
		return analysis.Player{}, err
	}
	acc, err := client.AccountByRiotID(ctx, name, tag)
	if err != nil {
		return analysis.Player{}, err
	}
	return analysis.Player{GameName: acc.GameName, TagLine: acc.TagLine, PUUID: acc.PUUID}, nil
}

// cacheStore returns the configured insight cache. The sqlite backend is the
// database itself; the returned close func releases a redis connection.
func cacheStore(db *storage.DB) (cache.Store, func() error, error) {
	switch cfg.Cache.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		return cache.NewRedisStore(client, cfg.Cache.Prefix, cfg.Cache.TTL), client.Close, nil
	case "sqlite":
		return db, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func loadPredictor(ctx context.Context) (*predictor.Predictor, error) {
	reg, err := registry.Load(ctx, registry.NewDirStore(cfg.Models.Dir), logger)
	if err != nil {
		return nil, fmt.Errorf("load models from %s: %w", cfg.Models.Dir, err)
	}
	return predictor.New(reg, predictor.WithLogger(logger), predictor.WithMetrics(mets)), nil
}
