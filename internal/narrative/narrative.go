// Package narrative turns insight results into a short prose summary. The
// LLM call is optional: any failure falls back to a one-line deterministic
// sentence.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"github.com/pable/riftlens/internal/model"
)

const systemPrompt = `You are a League of Legends performance coach. You are given a digest of
statistics and model outputs computed from one player's recent ranked games.

Rules:
- Answer ONLY from the digest. Never invent statistics.
- Cite specific numbers when making a claim.
- Be concise and actionable.

Reply with:
1. A brief playstyle summary (2 sentences).
2. The player's top 3 strengths.
3. The top 2 specific, actionable improvements.`

// Digest is the subset of a player's insights the summary is grounded on.
type Digest struct {
	RiotID          string
	Games           int
	WinRate         float64
	AvgKDA          float64
	AvgCS           float64
	AvgVision       float64
	TopChampions    []model.ChampionStats
	PCAFactors      []string
	NextGameWinProb float64
	WinFactors      []string
	TreeFactors     []string
}

// NewDigest picks the summary inputs out of r. Lists are capped at three.
func NewDigest(riotID string, r *model.InsightResults) Digest {
	s := r.Statistics
	return Digest{
		RiotID:          riotID,
		Games:           s.TotalGames,
		WinRate:         s.WinRate,
		AvgKDA:          s.AvgKDA,
		AvgCS:           s.AvgCS,
		AvgVision:       s.AvgVision,
		TopChampions:    first(s.TopChampions, 3),
		PCAFactors:      first(r.PCA.TopFeatures, 3),
		NextGameWinProb: r.LogisticRegression.NextGameWinProb,
		WinFactors:      first(r.LogisticRegression.TopWinFactors, 3),
		TreeFactors:     first(r.DecisionTree.TopFeatures, 3),
	}
}

func first[T any](xs []T, n int) []T {
	if len(xs) > n {
		return xs[:n]
	}
	return xs
}

// Prompt renders d as the user message sent to the model.
func (d Digest) Prompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Player: %s\n", d.RiotID)
	fmt.Fprintf(&b, "Games Analyzed: %d\n", d.Games)
	fmt.Fprintf(&b, "Win Rate: %.1f%%\n\n", d.WinRate*100)

	b.WriteString("=== STATS ===\n")
	fmt.Fprintf(&b, "Average KDA: %.2f\n", d.AvgKDA)
	fmt.Fprintf(&b, "Average CS: %.1f\n", d.AvgCS)
	fmt.Fprintf(&b, "Average Vision Score: %.1f\n\n", d.AvgVision)

	b.WriteString("Top Champions:\n")
	for _, c := range d.TopChampions {
		fmt.Fprintf(&b, "- %s: %d games, %.1f%% WR, %.2f KDA\n", c.Champion, c.Games, c.WinRate*100, c.AvgKDA)
	}

	b.WriteString("\n=== ML INSIGHTS ===\n")
	fmt.Fprintf(&b, "1. PCA Analysis: top performance factors are %s\n", list(d.PCAFactors))
	fmt.Fprintf(&b, "2. Win Prediction: %.1f%% probability for next game\n", d.NextGameWinProb*100)
	fmt.Fprintf(&b, "3. Key win factors: %s\n", list(d.WinFactors))
	fmt.Fprintf(&b, "4. Decision Tree top factors: %s\n", list(d.TreeFactors))
	return b.String()
}

func list(xs []string) string {
	if len(xs) == 0 {
		return "n/a"
	}
	return strings.Join(xs, ", ")
}

// Fallback is the deterministic summary used whenever the model is
// unavailable.
func Fallback(d Digest) string {
	return fmt.Sprintf("Analysis for %s: %.1f%% win rate across %d games.", d.RiotID, d.WinRate*100, d.Games)
}

// Summarizer produces prose for a digest.
type Summarizer interface {
	Summarize(ctx context.Context, d Digest) (string, error)
}

// Anthropic summarizes with the Messages API.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

func NewAnthropic(apiKey, modelID string, maxTokens int, opts ...option.RequestOption) *Anthropic {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Anthropic{client: anthropic.NewClient(opts...), model: modelID, maxTokens: maxTokens}
}

func (a *Anthropic) Summarize(ctx context.Context, d Digest) (string, error) {
	stream := a.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(a.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(d.Prompt())),
		},
	})

	var b strings.Builder
	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				b.WriteString(delta.Delta.AsTextDelta().Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("stream summary: %w", err)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", errors.New("empty summary")
	}
	return text, nil
}

// Writer wraps a Summarizer with the fallback. A nil Summarizer always
// yields the fallback.
type Writer struct {
	s   Summarizer
	log zerolog.Logger
}

func NewWriter(s Summarizer, log zerolog.Logger) *Writer {
	return &Writer{s: s, log: log}
}

// Write never fails: errors are logged and replaced by Fallback.
func (w *Writer) Write(ctx context.Context, d Digest) string {
	if w == nil || w.s == nil {
		return Fallback(d)
	}
	text, err := w.s.Summarize(ctx, d)
	if err != nil {
		w.log.Warn().Err(err).Str("riot_id", d.RiotID).Msg("narrative failed, using fallback")
		return Fallback(d)
	}
	return text
}
