package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/riftlens/internal/collector"
	"github.com/pable/riftlens/internal/storage"
)

var (
	collectSeeds     []string
	collectMatches   int
	collectPerPlayer int
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Snowball-collect ranked matches for model training",
	Long: `Starting from seed players (the platform's challenger league by default),
pull each player's recent ranked matches, keep the usable ones and queue every
player seen in them. Stops after --matches new matches or when the queue drains.`,
	Args: cobra.NoArgs,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().StringSliceVar(&collectSeeds, "seed", nil, "seed PUUIDs (default: challenger league)")
	collectCmd.Flags().IntVar(&collectMatches, "matches", 500, "number of new matches to store")
	collectCmd.Flags().IntVar(&collectPerPlayer, "per-player", 20, "recent matches pulled per player")
}

func runCollect(cmd *cobra.Command, args []string) error {
	client, err := newRiotClient()
	if err != nil {
		return err
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	params := collector.DefaultParams()
	params.Matches = collectMatches
	params.MatchesPerPlayer = collectPerPlayer
	params.Seed = cfg.Training.Seed

	st, err := collector.New(client, db, params, logger).Run(cmd.Context(), collectSeeds)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	fmt.Fprintf(os.Stdout, "\n=== Collection ===\n\n")
	fmt.Fprintf(os.Stdout, "  Matches stored   : %d\n", st.Matches)
	fmt.Fprintf(os.Stdout, "  Training samples : %d\n", st.Samples)
	fmt.Fprintf(os.Stdout, "  Already stored   : %d\n", st.Existing)
	fmt.Fprintf(os.Stdout, "  Filtered out     : %d\n", st.Skipped)
	fmt.Fprintf(os.Stdout, "  Players visited  : %d\n", st.Players)
	fmt.Fprintf(os.Stdout, "  Fetch errors     : %d\n", st.Errors)
	return nil
}
