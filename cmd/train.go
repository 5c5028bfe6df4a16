package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/riftlens/internal/features"
	"github.com/pable/riftlens/internal/model"
	"github.com/pable/riftlens/internal/registry"
	"github.com/pable/riftlens/internal/report"
	"github.com/pable/riftlens/internal/storage"
	"github.com/pable/riftlens/internal/training"
)

var trainOut string

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the per-role performance models from stored matches",
	Long: `Label every usable participant of every stored match with a 0-100
performance score, fit one gradient-boosted model per role and write the
models, feature manifest and metadata to the models directory.`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().StringVar(&trainOut, "out", "", "output directory (default: models.dir from config)")
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := trainOut
	if out == "" {
		out = cfg.Models.Dir
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	ext := features.NewExtractor(logger, mets)
	var samples []model.TrainingSample
	err = db.ForEachMatch(ctx, func(m *model.Match) error {
		samples = append(samples, training.Samples(m, ext)...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("read matches: %w", err)
	}
	logger.Info().Int("samples", len(samples)).Msg("training samples extracted")

	res, err := training.New(training.ParamsFromConfig(cfg.Training), logger).Train(ctx, samples)
	if err != nil {
		return err
	}
	if err := training.Save(ctx, registry.NewDirStore(out), res); err != nil {
		return fmt.Errorf("save models: %w", err)
	}

	var roles []model.Role
	for _, r := range model.Roles {
		if _, ok := res.Models[r]; ok {
			roles = append(roles, r)
		}
	}
	report.PrintModels(os.Stdout, roles, res.Metadata.FeatureColumns, res.Metadata)
	fmt.Fprintf(os.Stdout, "\nModels written to %s\n", out)
	return nil
}
