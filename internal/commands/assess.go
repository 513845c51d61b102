package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pegwatch/internal/app"
	"github.com/pegwatch/pkg/config"
	"github.com/pegwatch/pkg/logger"
)

var assessStream bool

// assessCmd runs a one-shot assessment from the command line.
var assessCmd = &cobra.Command{
	Use:   "assess TICKER",
	Short: "Run a one-shot risk assessment",
	Long: `Assess a single stablecoin and print the result as JSON.

With --stream each tier prints as a separate JSON line the moment it
completes; otherwise the command waits and prints the full assessment.

Examples:
  pegwatch assess USDC
  pegwatch assess DAI --stream`,
	Args: cobra.ExactArgs(1),
	RunE: runAssess,
}

func init() {
	rootCmd.AddCommand(assessCmd)
	assessCmd.Flags().BoolVar(&assessStream, "stream", false, "print tiers as they complete")
}

func runAssess(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Printf("Note: .env file not loaded: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Logging.Output = "stderr"
	if verbose {
		cfg.Logging.Level = "debug"
	} else {
		cfg.Logging.Level = "warn"
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	application := app.New(cfg, log)
	if err := application.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	ticker := strings.ToUpper(args[0])
	frames := application.Orchestrator().Run(ticker)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	if assessStream {
		for frame := range frames {
			if err := encoder.Encode(frame); err != nil {
				return err
			}
		}
		return nil
	}

	assessment, err := application.Assembler().Collect(ticker, frames)
	if err != nil {
		return err
	}
	return encoder.Encode(assessment)
}
