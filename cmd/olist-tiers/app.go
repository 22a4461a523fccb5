package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Quintas0658/olist-ecommerce-project/internal/analyzer"
	"github.com/Quintas0658/olist-ecommerce-project/internal/config"
	"github.com/Quintas0658/olist-ecommerce-project/internal/logger"
	"github.com/Quintas0658/olist-ecommerce-project/internal/models"
	"github.com/Quintas0658/olist-ecommerce-project/internal/source"
	"github.com/Quintas0658/olist-ecommerce-project/internal/storage"
	"github.com/Quintas0658/olist-ecommerce-project/internal/tier"
)

// loadFunc loads the raw dataset described by the configuration.
type loadFunc func(ctx context.Context, cfg *config.Config) (*source.Dataset, error)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	configPath string
	lookback   int

	cfg    *config.Config
	engine *analyzer.Engine

	load     loadFunc
	progress io.Writer // nil disables progress bars
	initLog  bool
}

func newApp() *app {
	return &app{load: loadDataset, progress: progressWriter(), initLog: true}
}

func loadDataset(ctx context.Context, cfg *config.Config) (*source.Dataset, error) {
	return source.Load(ctx, cfg.Data.Source, cfg.Data.Dir, cfg.Data.DSN)
}

// setup loads configuration and data once per invocation.
func (a *app) setup(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if a.initLog {
		logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	}
	if a.configPath != "" {
		logger.Info("Configuration loaded from %s", a.configPath)
	}

	if !cmd.Flags().Changed("lookback") {
		a.lookback = cfg.Analysis.LookbackMonths
	}
	if a.lookback < 0 {
		return fmt.Errorf("lookback must not be negative, got %d", a.lookback)
	}

	table, err := cfg.TierTable()
	if err != nil {
		return err
	}
	classifier, err := tier.New(table)
	if err != nil {
		return err
	}

	start := time.Now()
	ds, err := a.load(ctx, cfg)
	if err != nil {
		var malformed *source.MalformedDataError
		if errors.As(err, &malformed) {
			return fmt.Errorf("raw data is unusable: %w", err)
		}
		return fmt.Errorf("failed to load data: %w", err)
	}
	counts := ds.Counts()
	logger.Info("Loaded %d sellers and %d orders from %s source in %v",
		counts[source.TableSellers], counts[source.TableOrders], cfg.Data.Source, time.Since(start).Round(time.Millisecond))

	a.cfg = cfg
	a.engine = analyzer.New(ds, storage.New(), classifier, analyzer.Options{
		TrendThreshold:      cfg.Analysis.TrendThreshold,
		VolatilityThreshold: cfg.Analysis.VolatilityThreshold,
		Workers:             cfg.Analysis.Workers,
	})
	return nil
}

// month resolves a --month value, defaulting to the latest available month.
func (a *app) month(value string) (models.Month, error) {
	if value != "" {
		return models.ParseMonth(value)
	}
	months := a.engine.AvailableMonths()
	if len(months) == 0 {
		return models.Month{}, errors.New("no months with order data")
	}
	return months[len(months)-1], nil
}

// session resolves a --from/--to range against the available months. Empty bounds
// default to the first and last available month.
func (a *app) session(from, to string, minMonths int) (*analyzer.Session, error) {
	available := a.engine.AvailableMonths()
	if len(available) == 0 {
		return nil, errors.New("no months with order data")
	}

	start, end := available[0], available[len(available)-1]
	var err error
	if from != "" {
		if start, err = models.ParseMonth(from); err != nil {
			return nil, err
		}
	}
	if to != "" {
		if end, err = models.ParseMonth(to); err != nil {
			return nil, err
		}
	}

	s, err := analyzer.NewSession(start, end, a.lookback, minMonths)
	if err != nil {
		return nil, err
	}
	s.Restrict(available)
	logger.Debug("Session %s: %d months between %s and %s, lookback %d", s.ID, len(s.Months), start, end, s.Lookback)
	return s, nil
}

// warm builds the profiles for months in parallel with a progress bar.
func (a *app) warm(ctx context.Context, months []models.Month) error {
	if len(months) < 2 || a.progress == nil {
		return a.engine.Warm(ctx, months, a.lookback)
	}

	bar := progressbar.NewOptions(len(months),
		progressbar.OptionSetWriter(a.progress),
		progressbar.OptionSetDescription("building profiles"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Finish()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Analysis.Workers)
	for _, m := range months {
		m := m
		g.Go(func() error {
			if _, err := a.engine.BuildMonthlySellerProfile(gctx, m, a.lookback); err != nil {
				return err
			}
			return bar.Add(1)
		})
	}
	return g.Wait()
}
