package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
)

var (
	dropForce  bool
	dropModels bool
)

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the riftlens database",
	Long: `Permanently delete the SQLite database. Stored matches, cached insights and
saved analyses are lost. Trained models are kept unless --models is given.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().BoolVar(&dropModels, "models", false, "also delete the models directory")
}

func runDrop(cmd *cobra.Command, args []string) error {
	targets := []string{dbPath, dbPath + "-wal", dbPath + "-shm"}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		if dropModels {
			fmt.Fprintf(os.Stderr, "                         and: %s\n", cfg.Models.Dir)
		}
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}

	removed := 0
	for _, p := range targets {
		err := os.Remove(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("remove %s: %w", p, err)
		}
		removed++
	}
	if removed == 0 {
		fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
	} else {
		fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	}

	if dropModels {
		if err := os.RemoveAll(cfg.Models.Dir); err != nil {
			return fmt.Errorf("remove models: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Deleted: %s\n", cfg.Models.Dir)
	}
	return nil
}
