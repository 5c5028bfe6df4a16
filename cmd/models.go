package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/riftlens/internal/registry"
	"github.com/pable/riftlens/internal/report"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the trained models and their evaluation metrics",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func runModels(cmd *cobra.Command, args []string) error {
	store := registry.NewDirStore(cfg.Models.Dir)
	reg, err := registry.Load(cmd.Context(), store, logger)
	if err != nil {
		return fmt.Errorf("load models from %s: %w", cfg.Models.Dir, err)
	}
	report.PrintModels(os.Stdout, reg.Roles(), reg.Features(), reg.Metadata())

	keys, err := store.Keys()
	if err != nil {
		return fmt.Errorf("list artifacts: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\nArtifacts in %s:\n", store.Dir())
	for _, k := range keys {
		fmt.Fprintf(os.Stdout, "  %s\n", k)
	}
	return nil
}
