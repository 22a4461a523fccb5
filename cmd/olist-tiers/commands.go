package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Quintas0658/olist-ecommerce-project/internal/export"
	"github.com/Quintas0658/olist-ecommerce-project/internal/logger"
	"github.com/Quintas0658/olist-ecommerce-project/internal/report"
	"github.com/Quintas0658/olist-ecommerce-project/internal/telegram"
)

const defaultTop = 10

// ErrTelegramDisabled is returned by compare --notify when telegram is not configured.
var ErrTelegramDisabled = errors.New("telegram notifications are disabled (set telegram.enabled)")

// progressWriter returns stderr when it is a terminal, nil otherwise.
func progressWriter() io.Writer {
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return os.Stderr
	}
	return nil
}

func newMonthsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "months",
		Short: "List months with order activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report.Months(cmd.OutOrStdout(), a.engine.AvailableMonths())
			return nil
		},
	}
}

func newProfileCommand(a *app) *cobra.Command {
	var (
		month    string
		doExport bool
		format   string
		dir      string
		top      int
	)

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Build a monthly seller profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.month(month)
			if err != nil {
				return err
			}
			p, err := a.engine.BuildMonthlySellerProfile(cmd.Context(), m, a.lookback)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			report.Profile(out, p, top)

			if !doExport {
				return nil
			}
			if format == "" {
				format = a.cfg.Export.Format
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = a.cfg.Export.Dir
			}
			path, err := export.New(dir, f).Export(p)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nExported %s sellers to %s\n", report.Count(p.Len()), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "analysis month YYYY-MM (default latest)")
	cmd.Flags().BoolVar(&doExport, "export", false, "write the profile to the export directory")
	cmd.Flags().StringVar(&format, "format", "", "export format csv or xlsx (default from config)")
	cmd.Flags().StringVarP(&dir, "output", "o", "", "export directory (default from config)")
	cmd.Flags().IntVar(&top, "top", defaultTop, "sellers to list, 0 for all")

	return cmd
}

func newSummaryCommand(a *app) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.month(month)
			if err != nil {
				return err
			}
			s, err := a.engine.MonthlySummary(cmd.Context(), m, a.lookback)
			if err != nil {
				return err
			}
			report.Summary(cmd.OutOrStdout(), s)
			return nil
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "analysis month YYYY-MM (default latest)")

	return cmd
}

func newChangesCommand(a *app) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "changes",
		Short: "Tier flow and stability over a month range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.session(from, to, 1)
			if err != nil {
				return err
			}
			if err := a.warm(cmd.Context(), s.Months); err != nil {
				return err
			}
			res, err := a.engine.AnalyzeTierChanges(cmd.Context(), s.Months, s.Lookback)
			if err != nil {
				return err
			}
			report.TierChanges(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first month YYYY-MM (default earliest)")
	cmd.Flags().StringVar(&to, "to", "", "last month YYYY-MM (default latest)")

	return cmd
}

func newCompareCommand(a *app) *cobra.Command {
	var (
		month  string
		notify bool
		top    int
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Month-over-month and year-over-year tier movement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.month(month)
			if err != nil {
				return err
			}
			if notify && !a.cfg.Telegram.Enabled {
				return ErrTelegramDisabled
			}
			s, err := a.session(m.String(), m.String(), 1)
			if err != nil {
				return err
			}

			res, err := a.engine.AnalyzePeriodComparison(cmd.Context(), m, s.Lookback)
			if err != nil {
				return err
			}
			report.PeriodComparison(cmd.OutOrStdout(), res, top)

			if !notify {
				return nil
			}
			tc := a.cfg.Telegram
			client, err := telegram.NewClient(tc.BotToken, tc.ChatID, tc.MaxRetries, tc.RetryDelayBase)
			if err != nil {
				return fmt.Errorf("failed to initialize Telegram client: %w", err)
			}
			if err := client.SendComparison(cmd.Context(), res, s.ID); err != nil {
				return err
			}
			logger.Info("Comparison for %s sent (session %s)", m, s.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "target month YYYY-MM (default latest)")
	cmd.Flags().BoolVar(&notify, "notify", false, "send the comparison to Telegram")
	cmd.Flags().IntVar(&top, "top", defaultTop, "sellers to list per direction, 0 for all")

	return cmd
}

func newTrajectoryCommand(a *app) *cobra.Command {
	var (
		from, to  string
		minMonths int
		top       int
	)

	cmd := &cobra.Command{
		Use:   "trajectory",
		Short: "Classify seller tier trajectories over a month range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("min-months") {
				minMonths = a.cfg.Analysis.MinMonths
			}
			s, err := a.session(from, to, minMonths)
			if err != nil {
				return err
			}
			if err := a.warm(cmd.Context(), s.Months); err != nil {
				return err
			}
			res, err := a.engine.AnalyzeSellerTrajectory(cmd.Context(), s.Months, s.MinMonths, s.Lookback)
			if err != nil {
				return err
			}
			report.Trajectory(cmd.OutOrStdout(), res, top)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first month YYYY-MM (default earliest)")
	cmd.Flags().StringVar(&to, "to", "", "last month YYYY-MM (default latest)")
	cmd.Flags().IntVar(&minMonths, "min-months", 0, "months a seller must be observed (default from config)")
	cmd.Flags().IntVar(&top, "top", defaultTop, "movers to list, 0 for none, negative for all")

	return cmd
}
