package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pokepocketdata/ppdd/internal/database"
	"github.com/pokepocketdata/ppdd/internal/metrics"
	"github.com/pokepocketdata/ppdd/internal/seed"
	"github.com/pokepocketdata/ppdd/internal/services"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load cards from a YAML catalog",
	Long: `Loads every card listed in a YAML catalog. Each entry is checked exactly
as if it had been submitted to POST /api/cards/pokemon or /api/cards/trainer.
Cards that already exist are skipped.

Example:
  ppdd seed --file catalog/genetic-apex.yaml`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML catalog to load")
	_ = seedCmd.MarkFlagRequired("file")
}

func runSeed(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()
	store := database.NewStore(db)

	images := services.NewImageStorageService(cfg.CardImagesDir, logger)
	loader := seed.NewLoader(services.NewCardService(store, images, logger), logger)

	res, err := loader.LoadFile(cmd.Context(), seedFile)
	if err != nil {
		return err
	}
	metrics.UpdateDatabaseMetrics(cmd.Context(), store, logger)

	for _, f := range res.Failed {
		logger.Error("Card not loaded", zap.Int("index", f.Index), zap.String("name", f.Name), zap.Error(f.Err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %d, already present %d, failed %d\n", res.Created, res.Existing, len(res.Failed))
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d catalog entries were rejected", len(res.Failed))
	}
	return nil
}
