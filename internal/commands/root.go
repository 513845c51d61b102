package commands

import (
	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pegwatch",
	Short: "Stablecoin risk assessment backend",
	Long: `Evidence aggregation and tiered risk scoring for stablecoins.

Given a ticker, pegwatch resolves the asset's identity, discovers
transparency and audit evidence on third-party sites, measures peg
stability and liquidity concentration, and streams a weighted risk
assessment in three progressively deeper tiers.`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
