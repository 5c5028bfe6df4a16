package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/riftlens/internal/report"
	"github.com/pable/riftlens/internal/storage"
)

var listRiotID string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored matches",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listRiotID, "riot-id", "", "only list matches of this stored player (Name#TAG)")
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	if listRiotID != "" {
		return printPlayerMatches(os.Stdout, db, listRiotID)
	}
	return printMatchList(os.Stdout, db)
}

func printMatchList(w io.Writer, db *storage.DB) error {
	matches, err := db.ListMatches()
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		fmt.Fprintln(w, "No matches stored yet. Run 'riftlens fetch --riot-id Name#TAG' to add some.")
		return nil
	}

	fmt.Fprintf(w, "%-16s  %-16s  %-8s  %-10s  %5s  %s\n",
		"MATCH", "DATE", "DURATION", "MODE", "QUEUE", "PLAYERS")
	fmt.Fprintf(w, "%-16s  %-16s  %-8s  %-10s  %5s  %s\n",
		"────────────────", "────────────────", "────────", "──────────", "─────", "───────")
	for _, m := range matches {
		fmt.Fprintf(w, "%-16s  %-16s  %8s  %-10s  %5d  %d\n",
			m.MatchID, m.GameCreation.Format("2006-01-02 15:04"), report.Duration(m.DurationSecs),
			m.GameMode, m.QueueID, m.Participants)
	}
	return nil
}

func printPlayerMatches(w io.Writer, db *storage.DB, riotID string) error {
	puuid, err := db.FindPUUID(riotID)
	if err != nil {
		return fmt.Errorf("find player: %w", err)
	}
	if puuid == "" {
		fmt.Fprintf(w, "No stored matches for %s.\n", riotID)
		return nil
	}
	rows, err := db.PlayerMatches(puuid)
	if err != nil {
		return fmt.Errorf("player matches: %w", err)
	}

	fmt.Fprintf(w, "%-16s  %-14s  %-8s  %-6s  %s\n", "MATCH", "CHAMPION", "ROLE", "RESULT", "K/D/A")
	fmt.Fprintf(w, "%-16s  %-14s  %-8s  %-6s  %s\n",
		"────────────────", "──────────────", "────────", "──────", "─────")
	for _, r := range rows {
		result := "L"
		if r.Win {
			result = "W"
		}
		fmt.Fprintf(w, "%-16s  %-14s  %-8s  %-6s  %d/%d/%d\n",
			r.MatchID, r.Champion, r.Position, result, r.Kills, r.Deaths, r.Assists)
	}
	return nil
}
