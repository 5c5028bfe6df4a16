package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/riftlens/internal/collector"
	"github.com/pable/riftlens/internal/riot"
	"github.com/pable/riftlens/internal/storage"
)

var (
	fetchRiotID string
	fetchCount  int
	fetchQueue  int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a player's recent matches into the database",
	Long: `Resolve a Riot ID, list the player's most recent matches and store every
match that is not already in the database. Requires RIOT_API_KEY.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchRiotID, "riot-id", "", "player as Name#TAG (required)")
	fetchCmd.Flags().IntVar(&fetchCount, "count", 20, "number of recent matches to fetch (max 100)")
	fetchCmd.Flags().IntVar(&fetchQueue, "queue", collector.RankedSoloQueue, "queue id filter, 0 for all queues")
	_ = fetchCmd.MarkFlagRequired("riot-id")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name, tag, err := riot.ParseRiotID(fetchRiotID)
	if err != nil {
		return err
	}
	client, err := newRiotClient()
	if err != nil {
		return err
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	acc, err := client.AccountByRiotID(ctx, name, tag)
	if err != nil {
		return err
	}
	ids, err := client.MatchIDs(ctx, acc.PUUID, fetchCount, fetchQueue)
	if err != nil {
		return err
	}

	var stored, existing, missing int
	for i, id := range ids {
		ok, err := db.MatchExists(id)
		if err != nil {
			return fmt.Errorf("check match: %w", err)
		}
		if ok {
			existing++
			continue
		}
		m, err := client.Match(ctx, id)
		if errors.Is(err, riot.ErrNotFound) {
			missing++
			continue
		}
		if err != nil {
			return err
		}
		if err := db.InsertMatch(m); err != nil {
			return fmt.Errorf("store match %s: %w", id, err)
		}
		stored++
		fmt.Fprintf(os.Stdout, "  [%d/%d] %s stored\n", i+1, len(ids), id)
	}

	fmt.Fprintf(os.Stdout, "\n%s: %d new, %d already stored", acc.RiotID(), stored, existing)
	if missing > 0 {
		fmt.Fprintf(os.Stdout, ", %d unavailable", missing)
	}
	fmt.Fprintln(os.Stdout)
	return nil
}
