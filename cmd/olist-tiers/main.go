// Package main provides the olist-tiers CLI: seller tier profiles, transitions,
// period comparisons and trajectories over the Olist marketplace data.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(newApp()).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "olist-tiers",
		Short: "Seller tier dynamics over the Olist marketplace data",
		Long: `olist-tiers classifies Olist sellers into five tiers per month and analyzes
how they move between tiers.

Commands:
  months      List months with order activity
  profile     Build (and optionally export) a monthly seller profile
  summary     Summarize a month
  changes     Tier flow and stability over a month range
  compare     Month-over-month and year-over-year tier movement
  trajectory  Classify seller tier trajectories over a month range`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to configuration file")
	rootCmd.PersistentFlags().IntVarP(&a.lookback, "lookback", "l", 0, "lookback months (default from config)")

	rootCmd.AddCommand(
		newMonthsCommand(a),
		newProfileCommand(a),
		newSummaryCommand(a),
		newChangesCommand(a),
		newCompareCommand(a),
		newTrajectoryCommand(a),
	)

	return rootCmd
}
