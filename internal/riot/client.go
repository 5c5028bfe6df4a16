// Package riot is a small client for the Riot account-v1, match-v5 and
// league-v4 endpoints. Requests share a two-window rate limit and a circuit
// breaker; 429 responses are retried after Retry-After.
package riot

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/pable/riftlens/internal/config"
	"github.com/pable/riftlens/internal/metrics"
	"github.com/pable/riftlens/internal/model"
)

// ErrNotFound is returned when Riot answers 404 for a player or match.
var ErrNotFound = errors.New("riot: not found")

// defaultRetryAfter applies when a 429 carries no usable Retry-After header.
const defaultRetryAfter = 10 * time.Second

var routing = map[string]string{
	"na1": "americas", "br1": "americas", "la1": "americas", "la2": "americas",
	"euw1": "europe", "eun1": "europe", "tr1": "europe", "ru": "europe",
	"kr": "asia", "jp1": "asia",
	"oc1": "sea", "ph2": "sea", "sg2": "sea", "th2": "sea", "tw2": "sea", "vn2": "sea",
}

// RegionFor returns the regional routing value (americas, europe, asia, sea)
// for a platform id such as "euw1".
func RegionFor(platform string) (string, error) {
	r, ok := routing[strings.ToLower(platform)]
	if !ok {
		return "", fmt.Errorf("unknown platform %q", platform)
	}
	return r, nil
}

// Account is the account-v1 payload.
type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// RiotID returns "gameName#tagLine".
func (a *Account) RiotID() string { return a.GameName + "#" + a.TagLine }

// ParseRiotID splits "Name#TAG" into its two halves.
func ParseRiotID(s string) (gameName, tagLine string, err error) {
	name, tag, ok := strings.Cut(strings.TrimSpace(s), "#")
	if !ok || name == "" || tag == "" {
		return "", "", fmt.Errorf("riot id %q: want Name#TAG", s)
	}
	return name, tag, nil
}

type Client struct {
	apiKey      string
	regionalURL string
	platformURL string
	httpClient  *http.Client

	perSecond  *rate.Limiter
	perTwoMins *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	maxRetries int

	log     zerolog.Logger
	metrics *metrics.Metrics

	// sleep waits out Retry-After and 5xx backoff; tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

// WithBaseURL points both the regional and platform hosts at u.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.regionalURL = strings.TrimRight(u, "/")
		c.platformURL = c.regionalURL
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient builds a client for cfg.Platform.
func NewClient(cfg config.RiotConfig, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("riot api key is not set (RIOT_API_KEY)")
	}
	platform := strings.ToLower(cfg.Platform)
	region, err := RegionFor(platform)
	if err != nil {
		return nil, err
	}
	perSecond := max(cfg.PerSecond, 1)
	perTwoMins := max(cfg.PerTwoMinutes, 1)

	st := gobreaker.Settings{Name: "riot", Timeout: cfg.BreakerTimeout}
	failures := uint32(max(cfg.BreakerFailures, 1))
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= failures
	}

	c := &Client{
		apiKey:      cfg.APIKey,
		regionalURL: "https://" + region + ".api.riotgames.com",
		platformURL: "https://" + platform + ".api.riotgames.com",
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout},
		perSecond:   rate.NewLimiter(rate.Limit(perSecond), perSecond),
		perTwoMins:  rate.NewLimiter(rate.Every(2*time.Minute/time.Duration(perTwoMins)), perTwoMins),
		breaker:     gobreaker.NewCircuitBreaker(st),
		maxRetries:  max(cfg.MaxRetries, 0),
		log:         zerolog.Nop(),
		sleep:       sleepCtx,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// AccountByRiotID resolves a Riot ID to its account.
func (c *Client) AccountByRiotID(ctx context.Context, gameName, tagLine string) (*Account, error) {
	u := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.regionalURL, url.PathEscape(gameName), url.PathEscape(tagLine))
	var acc Account
	if err := c.get(ctx, u, &acc); err != nil {
		return nil, fmt.Errorf("account %s#%s: %w", gameName, tagLine, err)
	}
	return &acc, nil
}

// MatchIDs returns up to count of the player's most recent match ids, newest
// first. queue filters by queue id when non-zero (420 is ranked solo).
func (c *Client) MatchIDs(ctx context.Context, puuid string, count, queue int) ([]string, error) {
	q := url.Values{}
	q.Set("start", "0")
	q.Set("count", strconv.Itoa(count))
	if queue > 0 {
		q.Set("queue", strconv.Itoa(queue))
	}
	u := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?%s",
		c.regionalURL, url.PathEscape(puuid), q.Encode())
	var ids []string
	if err := c.get(ctx, u, &ids); err != nil {
		return nil, fmt.Errorf("match ids: %w", err)
	}
	return ids, nil
}

// Match fetches one match. A missing match yields ErrNotFound.
func (c *Client) Match(ctx context.Context, matchID string) (*model.Match, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.regionalURL, url.PathEscape(matchID))
	var m model.Match
	if err := c.get(ctx, u, &m); err != nil {
		return nil, fmt.Errorf("match %s: %w", matchID, err)
	}
	return &m, nil
}

type leagueEntry struct {
	PUUID        string `json:"puuid"`
	LeaguePoints int    `json:"leaguePoints"`
}

type leagueList struct {
	Entries []leagueEntry `json:"entries"`
}

// ChallengerPUUIDs returns up to limit PUUIDs from the platform's ranked solo
// challenger league, highest LP first.
func (c *Client) ChallengerPUUIDs(ctx context.Context, limit int) ([]string, error) {
	u := c.platformURL + "/lol/league/v4/challengerleagues/by-queue/RANKED_SOLO_5x5"
	var ll leagueList
	if err := c.get(ctx, u, &ll); err != nil {
		return nil, fmt.Errorf("challenger league: %w", err)
	}
	entries := ll.Entries
	slices.SortStableFunc(entries, func(a, b leagueEntry) int {
		return cmp.Compare(b.LeaguePoints, a.LeaguePoints)
	})
	var out []string
	for _, e := range entries {
		if e.PUUID == "" {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, e.PUUID)
	}
	return out, nil
}

type reply struct {
	status     int
	retryAfter string
	body       []byte
}

// get performs a rate-limited GET and decodes a 200 body into out.
func (c *Client) get(ctx context.Context, u string, out any) error {
	for attempt := 0; ; attempt++ {
		if err := c.perSecond.Wait(ctx); err != nil {
			return err
		}
		if err := c.perTwoMins.Wait(ctx); err != nil {
			return err
		}

		res, err := c.breaker.Execute(func() (interface{}, error) {
			return c.do(ctx, u)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return fmt.Errorf("riot api unavailable: %w", err)
			}
			if ctx.Err() != nil || attempt >= c.maxRetries {
				return err
			}
			wait := time.Duration(attempt+1) * time.Second
			c.log.Warn().Err(err).Str("url", u).Dur("wait", wait).Int("attempt", attempt+1).Msg("riot request failed, retrying")
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		r := res.(*reply)
		switch {
		case r.status == http.StatusOK:
			if err := json.Unmarshal(r.body, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil
		case r.status == http.StatusTooManyRequests:
			if attempt >= c.maxRetries {
				return fmt.Errorf("rate limited after %d retries", attempt)
			}
			wait := retryAfter(r.retryAfter)
			c.log.Warn().Str("url", u).Dur("wait", wait).Int("attempt", attempt+1).Msg("riot rate limited, waiting")
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
		case r.status == http.StatusNotFound:
			return ErrNotFound
		case r.status == http.StatusUnauthorized || r.status == http.StatusForbidden:
			return fmt.Errorf("status %d: check that the api key is valid", r.status)
		default:
			return fmt.Errorf("status %d", r.status)
		}
	}
}

// do issues one request. Transport errors and 5xx count as breaker failures;
// every other status is handed back to get.
func (c *Client) do(ctx context.Context, u string) (*reply, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRiotRequest(0)
		return nil, err
	}
	defer resp.Body.Close()
	c.metrics.ObserveRiotRequest(resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return &reply{status: resp.StatusCode, retryAfter: resp.Header.Get("Retry-After"), body: body}, nil
}

func retryAfter(h string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
