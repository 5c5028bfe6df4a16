package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/riftlens/internal/predictor"
	"github.com/pable/riftlens/internal/report"
	"github.com/pable/riftlens/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive session against the local database",
	Long: `Open a persistent session against the database. Everything runs offline
on stored matches. Type 'help' for available commands.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

// shell holds the state of one REPL session. The predictor is loaded on the
// first 'match' command.
type shell struct {
	ctx  context.Context
	db   *storage.DB
	pred *predictor.Predictor
}

func runShell(cmd *cobra.Command, _ []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	sh := &shell{ctx: cmd.Context(), db: db}

	cGreeting.Println("riftlens shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("riftlens")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		var err error
		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			err = printMatchList(os.Stdout, db)
		case "player":
			if rest == "" {
				cError.Fprintln(os.Stderr, "usage: player <Name#TAG>")
				continue
			}
			err = printPlayerMatches(os.Stdout, db, rest)
		case "analysis":
			if rest == "" {
				cError.Fprintln(os.Stderr, "usage: analysis <Name#TAG>")
				continue
			}
			err = sh.analysis(rest)
		case "match":
			if rest == "" {
				cError.Fprintln(os.Stderr, "usage: match <match-id>")
				continue
			}
			err = sh.match(rest)
		case "sql":
			if rest == "" {
				cError.Fprintln(os.Stderr, "usage: sql <query>")
				continue
			}
			err = printQuery(os.Stdout, db, rest)
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
		}
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list all stored matches"},
		{"player <Name#TAG>", "stored games of one player"},
		{"analysis <Name#TAG>", "latest saved analysis of a player"},
		{"match <match-id>", "score all participants of a stored match"},
		{"sql <query>", "run a raw SQL query"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-24s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func (s *shell) analysis(riotID string) error {
	player, err := resolvePlayer(s.ctx, s.db, riotID, true)
	if err != nil {
		return err
	}
	a, err := s.db.LatestAnalysis(s.ctx, player.Key())
	if err != nil {
		return err
	}
	if a == nil {
		cMuted.Printf("No saved analysis for %s. Run 'riftlens analyze --riot-id %s'.\n", player.RiotID(), player.RiotID())
		return nil
	}
	report.PrintAnalysis(os.Stdout, a)
	return nil
}

func (s *shell) match(id string) error {
	if s.pred == nil {
		pred, err := loadPredictor(s.ctx)
		if err != nil {
			return err
		}
		s.pred = pred
	}
	m, err := s.db.GetMatch(s.ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("match %s is not stored", id)
	}
	report.PrintMatchPredictions(os.Stdout, m, s.pred.PredictMatch(m))
	return nil
}
