package narrative

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"github.com/pable/riftlens/internal/model"
)

func sampleInsights() *model.InsightResults {
	return &model.InsightResults{
		Statistics: model.StatisticsResult{
			TotalGames: 20,
			WinRate:    0.55,
			AvgKDA:     3.21,
			AvgCS:      180.4,
			AvgVision:  22.5,
			TopChampions: []model.ChampionStats{
				{Champion: "Ahri", Games: 8, WinRate: 0.625, AvgKDA: 4.1},
				{Champion: "Syndra", Games: 6, WinRate: 0.5, AvgKDA: 3.0},
				{Champion: "Orianna", Games: 4, WinRate: 0.5, AvgKDA: 2.5},
				{Champion: "Lux", Games: 2, WinRate: 0.5, AvgKDA: 2.0},
			},
		},
		PCA:                model.PCAResult{TopFeatures: []string{"kda", "gold_per_min", "damage_per_min", "vision_score"}},
		LogisticRegression: model.LogisticRegressionResult{NextGameWinProb: 0.62, TopWinFactors: []string{"deaths", "kills"}},
		DecisionTree:       model.DecisionTreeResult{TopFeatures: []string{"deaths"}},
	}
}

func TestNewDigestCapsLists(t *testing.T) {
	d := NewDigest("Faker#KR1", sampleInsights())
	if len(d.TopChampions) != 3 || d.TopChampions[2].Champion != "Orianna" {
		t.Errorf("TopChampions = %+v", d.TopChampions)
	}
	if len(d.PCAFactors) != 3 {
		t.Errorf("PCAFactors = %v", d.PCAFactors)
	}
	if d.Games != 20 || d.NextGameWinProb != 0.62 {
		t.Errorf("digest = %+v", d)
	}
}

func TestPrompt(t *testing.T) {
	p := NewDigest("Faker#KR1", sampleInsights()).Prompt()
	for _, want := range []string{
		"Player: Faker#KR1",
		"Games Analyzed: 20",
		"Win Rate: 55.0%",
		"- Ahri: 8 games, 62.5% WR, 4.10 KDA",
		"top performance factors are kda, gold_per_min, damage_per_min",
		"62.0% probability for next game",
		"Key win factors: deaths, kills",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
	if strings.Contains(p, "Lux") {
		t.Error("prompt should only list three champions")
	}
}

func TestPromptEmptyInsights(t *testing.T) {
	p := NewDigest("x#y", &model.InsightResults{}).Prompt()
	if !strings.Contains(p, "Key win factors: n/a") {
		t.Errorf("prompt = %s", p)
	}
}

func TestFallback(t *testing.T) {
	got := Fallback(NewDigest("Faker#KR1", sampleInsights()))
	want := "Analysis for Faker#KR1: 55.0% win rate across 20 games."
	if got != want {
		t.Errorf("Fallback = %q, want %q", got, want)
	}
}

type stubSummarizer struct {
	text string
	err  error
}

func (s stubSummarizer) Summarize(context.Context, Digest) (string, error) {
	return s.text, s.err
}

func TestWriter(t *testing.T) {
	d := NewDigest("Faker#KR1", sampleInsights())
	ctx := context.Background()

	if got := NewWriter(stubSummarizer{text: "great mid laner"}, zerolog.Nop()).Write(ctx, d); got != "great mid laner" {
		t.Errorf("Write = %q", got)
	}
	if got := NewWriter(stubSummarizer{err: errors.New("boom")}, zerolog.Nop()).Write(ctx, d); got != Fallback(d) {
		t.Errorf("Write on error = %q, want fallback", got)
	}
	if got := NewWriter(nil, zerolog.Nop()).Write(ctx, d); got != Fallback(d) {
		t.Errorf("Write without summarizer = %q, want fallback", got)
	}
	var w *Writer
	if got := w.Write(ctx, d); got != Fallback(d) {
		t.Errorf("nil writer = %q, want fallback", got)
	}
}

func sse(w http.ResponseWriter, event, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

func TestAnthropicStreams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("api key header = %q", r.Header.Get("X-Api-Key"))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		sse(w, "message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[],"stop_reason":null,"usage":{"input_tokens":10,"output_tokens":1}}}`)
		sse(w, "content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
		sse(w, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Aggressive "}}`)
		sse(w, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"mid laner."}}`)
		sse(w, "content_block_stop", `{"type":"content_block_stop","index":0}`)
		sse(w, "message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":5}}`)
		sse(w, "message_stop", `{"type":"message_stop"}`)
	}))
	defer srv.Close()

	a := NewAnthropic("test-key", "claude-test", 256, option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	got, err := a.Summarize(context.Background(), NewDigest("Faker#KR1", sampleInsights()))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "Aggressive mid laner." {
		t.Errorf("Summarize = %q", got)
	}
}

func TestAnthropicFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	a := NewAnthropic("bad", "claude-test", 0, option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	d := NewDigest("Faker#KR1", sampleInsights())
	if _, err := a.Summarize(context.Background(), d); err == nil {
		t.Fatal("expected error on 401")
	}
	if got := NewWriter(a, zerolog.Nop()).Write(context.Background(), d); got != Fallback(d) {
		t.Errorf("Write = %q, want fallback", got)
	}
}
