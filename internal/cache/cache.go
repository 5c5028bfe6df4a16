// Package cache stores one AnalysisCacheRecord per player. The SQLite store
// in internal/storage and RedisStore here both satisfy Store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/pable/riftlens/internal/model"
)

// Store reads and overwrites cached insight records. Get returns nil, nil
// when the player has no record yet.
type Store interface {
	Get(ctx context.Context, playerKey string) (*model.AnalysisCacheRecord, error)
	Put(ctx context.Context, rec *model.AnalysisCacheRecord) error
}

// PlayerKey is the stable cache address for a player.
func PlayerKey(gameName, tagLine, puuid string) string {
	return gameName + "_" + tagLine + "_" + puuid
}

// RedisStore keeps records as JSON strings under prefix+playerKey.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps client. ttl <= 0 stores records without expiry.
func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(playerKey string) string {
	return s.prefix + playerKey
}

func (s *RedisStore) Get(ctx context.Context, playerKey string) (*model.AnalysisCacheRecord, error) {
	val, err := s.client.Get(ctx, s.key(playerKey)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", playerKey, err)
	}
	var rec model.AnalysisCacheRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("decode cached analysis %s: %w", playerKey, err)
	}
	return &rec, nil
}

func (s *RedisStore) Put(ctx context.Context, rec *model.AnalysisCacheRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode cached analysis: %w", err)
	}
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(rec.PlayerKey), string(b), ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", rec.PlayerKey, err)
	}
	return nil
}
