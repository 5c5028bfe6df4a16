package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/pable/riftlens/internal/analysis"
	"github.com/pable/riftlens/internal/insight"
	"github.com/pable/riftlens/internal/narrative"
	"github.com/pable/riftlens/internal/recompute"
	"github.com/pable/riftlens/internal/report"
	"github.com/pable/riftlens/internal/storage"
)

var (
	analyzeRiotID      string
	analyzeOffline     bool
	analyzeNoNarrative bool
	analyzeJSON        bool
	analyzeModel       string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the insight analyses for a player",
	Long: `Run PCA, clustering, regression, k-NN, decision-tree and descriptive
analyses over a player's recent games. Results are cached per player and only
recomputed once enough new matches have been played. A short summary is
written with Anthropic when ANTHROPIC_API_KEY is set.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeRiotID, "riot-id", "", "player as Name#TAG (required)")
	analyzeCmd.Flags().BoolVar(&analyzeOffline, "offline", false, "use stored matches only")
	analyzeCmd.Flags().BoolVar(&analyzeNoNarrative, "no-narrative", false, "skip the LLM summary")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the analysis as JSON")
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "Anthropic model (default: narrative.model from config)")
	_ = analyzeCmd.MarkFlagRequired("riot-id")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	player, err := resolvePlayer(ctx, db, analyzeRiotID, analyzeOffline)
	if err != nil {
		return err
	}
	src, err := matchSource(db, analyzeOffline)
	if err != nil {
		return err
	}
	store, closeCache, err := cacheStore(db)
	if err != nil {
		return err
	}
	defer closeCache()

	svc := analysis.New(src, store,
		analysis.WithPolicy(recompute.Policy{MinNewMatches: cfg.Analysis.MinNewMatches}),
		analysis.WithPipeline(insight.New(
			insight.WithParallelism(cfg.Analysis.Parallelism),
			insight.WithLogger(logger),
			insight.WithMetrics(mets),
		)),
		analysis.WithNarrator(narrative.NewWriter(summarizer(), logger)),
		analysis.WithResults(db),
		analysis.WithMatchCount(cfg.Analysis.MatchCount),
		analysis.WithLogger(logger),
		analysis.WithMetrics(mets),
	)
	res, err := svc.Analyze(ctx, player)
	if err != nil {
		return err
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printed := *res
	printed.Narrative = renderMarkdown(res.Narrative)
	report.PrintAnalysis(os.Stdout, &printed)
	return nil
}

// renderMarkdown formats the narrative for the terminal. The raw text is
// returned when rendering fails.
func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(90))
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		logger.Debug().Err(err).Msg("render narrative")
		return text
	}
	return strings.TrimRight(out, "\n")
}

// summarizer returns nil when the narrative is disabled or no key is set,
// which makes the writer fall back to the one-line summary.
func summarizer() narrative.Summarizer {
	if analyzeNoNarrative || !cfg.Narrative.Enabled || cfg.Narrative.APIKey == "" {
		return nil
	}
	modelID := cfg.Narrative.Model
	if analyzeModel != "" {
		modelID = analyzeModel
	}
	return narrative.NewAnthropic(cfg.Narrative.APIKey, modelID, cfg.Narrative.MaxTokens)
}
