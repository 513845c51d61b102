package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pegwatch/internal/curated"
	"github.com/pegwatch/pkg/config"
	"github.com/pegwatch/pkg/logger"
)

// migrateCmd creates the curated-registry schema and seeds it.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the curated registry schema and seed it",
	Long: `Create the MySQL curated-registry table and seed it from the
embedded dataset. Rows already present are left untouched, so operator
edits survive repeated runs.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Printf("Note: .env file not loaded: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	source, err := curated.NewMySQLSource(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	defer source.Close()

	static, err := curated.NewStaticSource()
	if err != nil {
		return fmt.Errorf("failed to load embedded dataset: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := source.Migrate(ctx, static); err != nil {
		return err
	}
	log.Info("Migration complete")
	return nil
}
