package riot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pable/riftlens/internal/config"
)

func testClient(t *testing.T, h http.Handler) (*Client, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := config.Default().Riot
	cfg.APIKey = "RGAPI-test"
	c, err := NewClient(cfg, WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	var waits []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return c, &waits
}

func TestAccountByRiotID(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Riot-Token"); got != "RGAPI-test" {
			t.Errorf("token header = %q", got)
		}
		if r.URL.EscapedPath() != "/riot/account/v1/accounts/by-riot-id/Faker%20Jr/KR1" {
			t.Errorf("path = %q", r.URL.EscapedPath())
		}
		w.Write([]byte(`{"puuid":"p-1","gameName":"Faker Jr","tagLine":"KR1"}`))
	}))

	acc, err := c.AccountByRiotID(context.Background(), "Faker Jr", "KR1")
	if err != nil {
		t.Fatalf("AccountByRiotID: %v", err)
	}
	if acc.PUUID != "p-1" || acc.RiotID() != "Faker Jr#KR1" {
		t.Errorf("account = %+v", acc)
	}
}

func TestMatchIDsQuery(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("count") != "20" || q.Get("queue") != "420" || q.Get("start") != "0" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`["NA1_3","NA1_2","NA1_1"]`))
	}))

	ids, err := c.MatchIDs(context.Background(), "p-1", 20, 420)
	if err != nil {
		t.Fatalf("MatchIDs: %v", err)
	}
	if len(ids) != 3 || ids[0] != "NA1_3" {
		t.Errorf("ids = %v", ids)
	}
}

func TestMatchNotFound(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := c.Match(context.Background(), "NA1_404")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMatchDecodes(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"metadata":{"matchId":"NA1_9","participants":["a"]},
			"info":{"gameDuration":1800,"gameMode":"CLASSIC","queueId":420,
			"participants":[{"puuid":"a","championName":"Ahri","individualPosition":"MIDDLE","kills":3,"deaths":1,"assists":4}]}}`))
	}))

	m, err := c.Match(context.Background(), "NA1_9")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	p := m.Participant("a")
	if p == nil || p.ChampionName != "Ahri" || p.Kills != 3 {
		t.Fatalf("participant = %+v", p)
	}
	if p.Has("goldEarned") {
		t.Error("goldEarned should be reported absent")
	}
}

func TestRetryAfter429(t *testing.T) {
	var calls int32
	c, waits := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))

	if _, err := c.MatchIDs(context.Background(), "p", 5, 0); err != nil {
		t.Fatalf("MatchIDs: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(*waits) != 1 || (*waits)[0] != 2*time.Second {
		t.Errorf("waits = %v, want [2s]", *waits)
	}
}

func TestRetryAfterBounded(t *testing.T) {
	var calls int32
	c, waits := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	if _, err := c.MatchIDs(context.Background(), "p", 5, 0); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	maxRetries := config.Default().Riot.MaxRetries
	if int(calls) != maxRetries+1 {
		t.Errorf("calls = %d, want %d", calls, maxRetries+1)
	}
	for _, w := range *waits {
		if w != defaultRetryAfter {
			t.Errorf("wait = %v, want default %v", w, defaultRetryAfter)
		}
	}
}

func TestServerErrorRetried(t *testing.T) {
	var calls int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`["x"]`))
	}))

	ids, err := c.MatchIDs(context.Background(), "p", 1, 0)
	if err != nil {
		t.Fatalf("MatchIDs: %v", err)
	}
	if len(ids) != 1 || calls != 3 {
		t.Errorf("ids = %v calls = %d", ids, calls)
	}
}

func TestForbidden(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	_, err := c.AccountByRiotID(context.Background(), "a", "b")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestChallengerPUUIDs(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lol/league/v4/challengerleagues/by-queue/RANKED_SOLO_5x5" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"entries":[
			{"puuid":"low","leaguePoints":900},
			{"puuid":"high","leaguePoints":1500},
			{"puuid":"","leaguePoints":1200},
			{"puuid":"mid","leaguePoints":1100}]}`))
	}))

	got, err := c.ChallengerPUUIDs(context.Background(), 2)
	if err != nil {
		t.Fatalf("ChallengerPUUIDs: %v", err)
	}
	if len(got) != 2 || got[0] != "high" || got[1] != "mid" {
		t.Errorf("got %v, want [high mid]", got)
	}
}

func TestChallengerPUUIDsKeepsOrderOnTies(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"entries":[
			{"puuid":"b","leaguePoints":1000},
			{"puuid":"top","leaguePoints":1300},
			{"puuid":"a","leaguePoints":1000},
			{"puuid":"c","leaguePoints":1000}]}`))
	}))

	got, err := c.ChallengerPUUIDs(context.Background(), 0)
	if err != nil {
		t.Fatalf("ChallengerPUUIDs: %v", err)
	}
	want := []string{"top", "b", "a", "c"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRegionFor(t *testing.T) {
	tests := []struct {
		platform string
		want     string
	}{
		{"na1", "americas"},
		{"EUW1", "europe"},
		{"kr", "asia"},
		{"vn2", "sea"},
	}
	for _, tt := range tests {
		got, err := RegionFor(tt.platform)
		if err != nil || got != tt.want {
			t.Errorf("RegionFor(%q) = %q, %v; want %q", tt.platform, got, err, tt.want)
		}
	}
	if _, err := RegionFor("mars1"); err == nil {
		t.Error("expected error for unknown platform")
	}
}

func TestParseRiotID(t *testing.T) {
	name, tag, err := ParseRiotID(" Hide on bush#KR1 ")
	if err != nil || name != "Hide on bush" || tag != "KR1" {
		t.Errorf("ParseRiotID = %q %q %v", name, tag, err)
	}
	for _, bad := range []string{"", "noTag", "#tag", "name#"} {
		if _, _, err := ParseRiotID(bad); err == nil {
			t.Errorf("ParseRiotID(%q) should fail", bad)
		}
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(config.Default().Riot); err == nil {
		t.Error("expected error without api key")
	}
}
