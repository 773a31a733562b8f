package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pokepocketdata/ppdd/internal/api"
	"github.com/pokepocketdata/ppdd/internal/config"
	"github.com/pokepocketdata/ppdd/internal/database"
	"github.com/pokepocketdata/ppdd/internal/logging"
)

var (
	envFile string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "ppdd",
	Short:         "PokePocketData API server and tools",
	Version:       api.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil && cmd.Flags().Changed("env-file") {
			return fmt.Errorf("load %s: %w", envFile, err)
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("invalid configuration:\n%w", err)
		}

		logger, err = logging.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		logger.Debug("Configuration loaded", zap.Stringer("config", cfg))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

// openDatabase connects to the configured database and brings the schema up to date
func openDatabase() (*gorm.DB, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DSN(), logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, logger); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
