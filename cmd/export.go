package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/riftlens/internal/features"
	"github.com/pable/riftlens/internal/model"
	"github.com/pable/riftlens/internal/storage"
	"github.com/pable/riftlens/internal/training"
)

var (
	exportOut    string
	exportFormat string
	exportRoles  []string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the labelled training dataset",
	Long: `Extract features from every stored match, label each usable participant
with the performance score used for training, and write the result as CSV or
JSON lines. Useful for inspecting labels or training models elsewhere.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output file ('-' for stdout)")
	exportCmd.Flags().StringVar(&exportFormat, "format", training.FormatCSV, "csv or jsonl")
	exportCmd.Flags().StringSliceVar(&exportRoles, "role", nil, "only export these roles (TOP, JUNGLE, MIDDLE, BOTTOM, UTILITY)")
}

func runExport(cmd *cobra.Command, args []string) error {
	var roles []model.Role
	for _, r := range exportRoles {
		role := model.ParseRole(r)
		if !role.Supported() {
			return fmt.Errorf("unknown role %q", r)
		}
		roles = append(roles, role)
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	ext := features.NewExtractor(logger, mets)
	var samples []model.TrainingSample
	err = db.ForEachMatch(cmd.Context(), func(m *model.Match) error {
		samples = append(samples, training.Samples(m, ext)...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("read matches: %w", err)
	}
	recs := training.Label(samples, features.ModelColumns, roles...)

	var w io.Writer = os.Stdout
	if exportOut != "-" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer f.Close()
		w = f
	}
	if err := training.WriteDataset(w, exportFormat, features.ModelColumns, recs); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	if exportOut != "-" {
		fmt.Fprintf(os.Stderr, "Exported %d rows to %s\n", len(recs), exportOut)
	}
	return nil
}
