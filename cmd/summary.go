package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/riftlens/internal/storage"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate statistics about everything stored in the database:
match count, date range, players seen, cached analyses, role breakdown and
the most played champions.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	ov, err := db.GetOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.TotalMatches == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'riftlens fetch' or 'riftlens collect' to add some.")
		return nil
	}

	const day = "2006-01-02"
	fmt.Fprintf(os.Stdout, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(os.Stdout, "  Matches stored : %d\n", ov.TotalMatches)
	fmt.Fprintf(os.Stdout, "  Date range     : %s → %s\n",
		time.UnixMilli(ov.EarliestMatchMs).UTC().Format(day), time.UnixMilli(ov.LatestMatchMs).UTC().Format(day))
	fmt.Fprintf(os.Stdout, "  Players seen   : %d\n", ov.UniquePlayers)
	fmt.Fprintf(os.Stdout, "  Cached players : %d\n", ov.CachedPlayers)
	fmt.Fprintf(os.Stdout, "  Analyses saved : %d\n", ov.Analyses)

	fmt.Fprintf(os.Stdout, "\n--- Roles ---\n\n")
	rt := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	rt.Header("ROLE", "SAMPLES")
	for _, r := range ov.RoleCounts {
		rt.Append(r.Role, fmt.Sprintf("%d", r.Count))
	}
	rt.Render()

	if len(ov.TopChampions) == 0 {
		return nil
	}
	fmt.Fprintf(os.Stdout, "\n--- Most Played Champions ---\n\n")
	ct := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	ct.Header("CHAMPION", "GAMES", "WINS", "WIN%")
	for _, c := range ov.TopChampions {
		pct := 0.0
		if c.Games > 0 {
			pct = 100.0 * float64(c.Wins) / float64(c.Games)
		}
		ct.Append(c.Champion, fmt.Sprintf("%d", c.Games), fmt.Sprintf("%d", c.Wins), fmt.Sprintf("%.0f%%", pct))
	}
	ct.Render()
	return nil
}
