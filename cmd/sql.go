package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/riftlens/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the riftlens database",
	Long: `Run an arbitrary SQL query against the riftlens database and print results as a table.

Schema overview:
  matches(match_id, game_creation, game_duration, game_mode, game_version,
    queue_id, fetched_at, payload)
  participants(match_id, puuid, riot_id, champion, position, win,
    kills, deaths, assists)
  analysis_cache(player_key, run_id, processed_match_ids, last_updated,
    num_matches, recompute_reason, insights)
  player_analyses(run_id, player_key, riot_id, cached, cache_reason,
    processed_at, narrative, payload)

payload and insights columns hold JSON. Example:
  riftlens sql "SELECT champion, COUNT(*) FROM participants GROUP BY champion"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	return printQuery(os.Stdout, db, query)
}

// printQuery renders the result of a raw query as a table.
func printQuery(w io.Writer, db *storage.DB, query string) error {
	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return nil
	}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignLeft}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	table.Header(header...)
	for _, row := range rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		table.Append(cells...)
	}
	table.Render()
	fmt.Fprintf(w, "\n(%d rows)\n", len(rows))
	return nil
}
