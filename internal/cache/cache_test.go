package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"

	"github.com/pable/riftlens/internal/model"
)

func TestPlayerKey(t *testing.T) {
	if got := PlayerKey("Faker", "KR1", "abc"); got != "Faker_KR1_abc" {
		t.Errorf("PlayerKey = %q", got)
	}
}

func TestRedisStore_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, "riftlens:analysis:", time.Hour)
	ctx := context.Background()

	t.Run("miss returns nil", func(t *testing.T) {
		mock.ExpectGet("riftlens:analysis:k1").RedisNil()
		rec, err := store.Get(ctx, "k1")
		if err != nil {
			t.Fatalf("Get should not error on miss: %v", err)
		}
		if rec != nil {
			t.Errorf("expected nil record, got %+v", rec)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("redis expectations not met: %v", err)
		}
	})

	t.Run("hit decodes record", func(t *testing.T) {
		mock.ExpectGet("riftlens:analysis:k2").SetVal(`{"player_key":"k2","processed_match_ids":["m1","m2"],"num_matches_analyzed":2}`)
		rec, err := store.Get(ctx, "k2")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if rec == nil || rec.PlayerKey != "k2" || len(rec.ProcessedMatchIDs) != 2 {
			t.Errorf("unexpected record %+v", rec)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("redis expectations not met: %v", err)
		}
	})

	t.Run("redis error is surfaced", func(t *testing.T) {
		mock.ExpectGet("riftlens:analysis:k3").SetErr(redis.TxFailedErr)
		if _, err := store.Get(ctx, "k3"); err == nil {
			t.Error("expected error when redis fails")
		}
	})

	t.Run("corrupt payload is an error", func(t *testing.T) {
		mock.ExpectGet("riftlens:analysis:k4").SetVal("not json")
		if _, err := store.Get(ctx, "k4"); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestRedisStore_Put(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, "p:", 24*time.Hour)
	ctx := context.Background()

	rec := &model.AnalysisCacheRecord{
		PlayerKey:          "k",
		RunID:              "r",
		ProcessedMatchIDs:  []string{"m1"},
		LastUpdated:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		NumMatchesAnalyzed: 1,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	mock.ExpectSet("p:k", string(b), 24*time.Hour).SetVal("OK")
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("redis expectations not met: %v", err)
	}
}

var _ Store = (*RedisStore)(nil)
