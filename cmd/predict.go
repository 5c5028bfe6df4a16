package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/riftlens/internal/report"
	"github.com/pable/riftlens/internal/storage"
)

var (
	predictRiotID  string
	predictOffline bool
	predictCount   int
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Score a player's recent games with the role models",
	Long: `Score each of the player's recent games on a 0-100 scale with the model
for the role they played, and print a per-game table with a summary.
Use --offline to read only matches already stored by 'fetch'.`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

var predictMatchCmd = &cobra.Command{
	Use:   "match <match-id>",
	Short: "Score all ten participants of one match",
	Args:  cobra.ExactArgs(1),
	RunE:  runPredictMatch,
}

func init() {
	predictCmd.PersistentFlags().BoolVar(&predictOffline, "offline", false, "use stored matches only")
	predictCmd.Flags().StringVar(&predictRiotID, "riot-id", "", "player as Name#TAG")
	predictCmd.Flags().IntVar(&predictCount, "count", 20, "number of recent matches")
	predictCmd.AddCommand(predictMatchCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	if predictRiotID == "" {
		return errors.New("--riot-id is required (or use 'predict match <match-id>')")
	}
	ctx := cmd.Context()
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	pred, err := loadPredictor(ctx)
	if err != nil {
		return err
	}
	player, err := resolvePlayer(ctx, db, predictRiotID, predictOffline)
	if err != nil {
		return err
	}
	src, err := matchSource(db, predictOffline)
	if err != nil {
		return err
	}
	ids, err := src.RecentMatchIDs(ctx, player.PUUID, predictCount)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}

	var rows []report.PredictionRow
	for _, id := range ids {
		m, err := src.Match(ctx, id)
		if err != nil {
			return fmt.Errorf("load match %s: %w", id, err)
		}
		if m == nil {
			continue
		}
		p := m.Participant(player.PUUID)
		if p == nil {
			continue
		}
		mc := m.Context()
		res, err := pred.Predict(p, mc)
		if err != nil {
			logger.Debug().Err(err).Str("match_id", id).Msg("game not scored")
		}
		rows = append(rows, report.PredictionRow{Context: mc, Participant: p, Result: res, Err: err})
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stdout, "No matches found for %s.\n", player.RiotID())
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== %s ===\n\n", player.RiotID())
	report.PrintPredictions(os.Stdout, rows)
	report.PrintPredictionSummary(os.Stdout, rows)
	return nil
}

func runPredictMatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	pred, err := loadPredictor(ctx)
	if err != nil {
		return err
	}
	src, err := matchSource(db, predictOffline)
	if err != nil {
		return err
	}
	m, err := src.Match(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load match: %w", err)
	}
	if m == nil {
		return fmt.Errorf("match %s not found", args[0])
	}
	report.PrintMatchPredictions(os.Stdout, m, pred.PredictMatch(m))
	return nil
}
