// Package analyzer builds monthly seller profiles and analyzes how sellers move
// between tiers across months.
//
// The Engine is stateless apart from the profile store it is given: every analysis is
// computed from profiles obtained through the store, so repeated calls over an
// unchanged dataset return identical results. Missing months and short histories
// produce empty or absent results rather than errors.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/Quintas0658/olist-ecommerce-project/internal/aggregate"
	"github.com/Quintas0658/olist-ecommerce-project/internal/logger"
	"github.com/Quintas0658/olist-ecommerce-project/internal/models"
	"github.com/Quintas0658/olist-ecommerce-project/internal/source"
	"github.com/Quintas0658/olist-ecommerce-project/internal/storage"
	"github.com/Quintas0658/olist-ecommerce-project/internal/tier"
)

// Default trajectory thresholds.
const (
	DefaultTrendThreshold      = 0.1
	DefaultVolatilityThreshold = 0.5
)

// Options tunes the engine.
type Options struct {
	// TrendThreshold is the absolute OLS slope above which a trajectory counts as a
	// continuous rise or decline.
	TrendThreshold float64
	// VolatilityThreshold is the population stddev above which a non-trending
	// trajectory counts as frequent fluctuation.
	VolatilityThreshold float64
	// Workers bounds parallel profile builds.
	Workers int
}

// DefaultOptions returns the default engine options.
func DefaultOptions() Options {
	return Options{
		TrendThreshold:      DefaultTrendThreshold,
		VolatilityThreshold: DefaultVolatilityThreshold,
		Workers:             4,
	}
}

// Engine answers tier analyses over one dataset.
type Engine struct {
	ds         *source.Dataset
	store      *storage.ProfileStore
	classifier *tier.Classifier
	opts       Options
	now        func() time.Time
}

// New creates an Engine. A nil store or classifier is replaced by an empty store or
// the default classifier.
func New(ds *source.Dataset, store *storage.ProfileStore, classifier *tier.Classifier, opts Options) *Engine {
	if store == nil {
		store = storage.New()
	}
	if classifier == nil {
		classifier = tier.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Engine{
		ds:         ds,
		store:      store,
		classifier: classifier,
		opts:       opts,
		now:        time.Now,
	}
}

// Store returns the profile store backing the engine.
func (e *Engine) Store() *storage.ProfileStore {
	return e.store
}

// AvailableMonths returns the sorted months that contain at least one order purchase.
func (e *Engine) AvailableMonths() []models.Month {
	return e.ds.Months()
}

// IsAvailable reports whether month has any order purchases.
func (e *Engine) IsAvailable(month models.Month) bool {
	return e.ds.HasMonth(month)
}

// BuildMonthlySellerProfile returns the (cached) profile for month with the given
// lookback. A window without orders yields an empty profile.
func (e *Engine) BuildMonthlySellerProfile(ctx context.Context, month models.Month, lookback int) (*models.MonthlyProfile, error) {
	if lookback < 0 {
		return nil, fmt.Errorf("lookback months must not be negative, got %d", lookback)
	}
	return e.store.GetOrBuild(ctx, models.ProfileKey{Month: month, Lookback: lookback}, e.build)
}

// Warm builds the profiles for months in parallel.
func (e *Engine) Warm(ctx context.Context, months []models.Month, lookback int) error {
	if lookback < 0 {
		return fmt.Errorf("lookback months must not be negative, got %d", lookback)
	}
	keys := make([]models.ProfileKey, len(months))
	for i, m := range months {
		keys[i] = models.ProfileKey{Month: m, Lookback: lookback}
	}
	return e.store.Warm(ctx, keys, e.opts.Workers, e.build)
}

// profiles returns the profiles for months in the given order.
func (e *Engine) profiles(ctx context.Context, months []models.Month, lookback int) ([]*models.MonthlyProfile, error) {
	if err := e.Warm(ctx, months, lookback); err != nil {
		return nil, err
	}
	out := make([]*models.MonthlyProfile, len(months))
	for i, m := range months {
		p, err := e.BuildMonthlySellerProfile(ctx, m, lookback)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// build aggregates the window for key and classifies every seller.
func (e *Engine) build(_ context.Context, key models.ProfileKey) (*models.MonthlyProfile, error) {
	start := e.now()
	metrics, err := aggregate.Aggregate(e.ds, key.Month, key.Lookback)
	if err != nil {
		return nil, err
	}
	if len(metrics) == 0 {
		logger.Info("No orders in window for %s, profile is empty", key)
		return models.NewMonthlyProfile(key.Month, key.Lookback, nil, start), nil
	}

	rows := make([]models.SellerProfile, 0, len(e.ds.Sellers()))
	seen := make(map[string]bool, len(e.ds.Sellers()))
	for _, s := range e.ds.Sellers() {
		seen[s.SellerID] = true
		rows = append(rows, e.row(key, s, metrics[s.SellerID]))
	}
	// Sellers selling in the window without a sellers-table entry.
	for id, m := range metrics {
		if !seen[id] {
			rows = append(rows, e.row(key, source.Seller{SellerID: id}, m))
		}
	}

	p := models.NewMonthlyProfile(key.Month, key.Lookback, rows, start)
	logger.Info("Built profile %s: %d sellers, %d active (%s)",
		key, p.Len(), len(metrics), e.now().Sub(start).Round(time.Millisecond))
	return p, nil
}

func (e *Engine) row(key models.ProfileKey, s source.Seller, m models.SellerMetrics) models.SellerProfile {
	aggregate.Derive(&m)
	return models.SellerProfile{
		SellerID:       s.SellerID,
		SellerCity:     s.City,
		SellerState:    s.State,
		AnalysisMonth:  key.Month,
		LookbackMonths: key.Lookback,
		SellerMetrics:  m,
		Tier:           e.classifier.Classify(m),
	}
}
