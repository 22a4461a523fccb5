package analyzer

import (
	"context"
	"sort"

	"github.com/Quintas0658/olist-ecommerce-project/internal/logger"
	"github.com/Quintas0658/olist-ecommerce-project/internal/models"
)

// Comparison kinds.
const (
	KindMoM = "MoM"
	KindYoY = "YoY"
)

// SellerTierChange records one seller's tier move between two months.
type SellerTierChange struct {
	SellerID string      `json:"seller_id"`
	From     models.Tier `json:"from_tier"`
	To       models.Tier `json:"to_tier"`
	Change   int         `json:"tier_change"`
}

// ComparisonSummary counts tier moves over the sellers common to both months.
// Rates are fractions of Total and are 0 when Total is 0.
type ComparisonSummary struct {
	Total         int     `json:"total_sellers"`
	Upgraded      int     `json:"upgraded_sellers"`
	Downgraded    int     `json:"downgraded_sellers"`
	Stable        int     `json:"stable_sellers"`
	UpgradeRate   float64 `json:"upgrade_rate"`
	DowngradeRate float64 `json:"downgrade_rate"`
	StabilityRate float64 `json:"stability_rate"`
}

// Comparison compares a target month against one companion month.
type Comparison struct {
	Kind           string             `json:"kind"`
	CompanionMonth models.Month       `json:"-"`
	TargetMonth    models.Month       `json:"-"`
	Summary        ComparisonSummary  `json:"summary"`
	Flow           *FlowMatrix        `json:"-"`
	Upgraded       []SellerTierChange `json:"upgraded_sellers"`
	Downgraded     []SellerTierChange `json:"downgraded_sellers"`
}

// PeriodComparisonResult holds the month-over-month and year-over-year comparisons
// for a target month. A nil field means the companion month has no data.
type PeriodComparisonResult struct {
	TargetMonth models.Month
	Lookback    int
	MoM         *Comparison
	YoY         *Comparison
}

// Compare computes the comparison from companion to target.
func Compare(kind string, companion, target *models.MonthlyProfile) *Comparison {
	c := &Comparison{
		Kind:           kind,
		CompanionMonth: companion.Month,
		TargetMonth:    target.Month,
		Flow:           Flow(companion, target),
		Upgraded:       []SellerTierChange{},
		Downgraded:     []SellerTierChange{},
	}

	for _, s := range companion.Sellers {
		to, ok := target.TierOf(s.SellerID)
		if !ok {
			continue
		}
		c.Summary.Total++
		delta := to.Ordinal() - s.Tier.Ordinal()
		change := SellerTierChange{SellerID: s.SellerID, From: s.Tier, To: to, Change: delta}
		switch {
		case delta > 0:
			c.Summary.Upgraded++
			c.Upgraded = append(c.Upgraded, change)
		case delta < 0:
			c.Summary.Downgraded++
			c.Downgraded = append(c.Downgraded, change)
		default:
			c.Summary.Stable++
		}
	}

	c.Summary.UpgradeRate = ratio(c.Summary.Upgraded, c.Summary.Total)
	c.Summary.DowngradeRate = ratio(c.Summary.Downgraded, c.Summary.Total)
	c.Summary.StabilityRate = ratio(c.Summary.Stable, c.Summary.Total)

	sortByMagnitude(c.Upgraded)
	sortByMagnitude(c.Downgraded)
	return c
}

// sortByMagnitude orders changes by |Change| descending, ties by seller ID.
func sortByMagnitude(changes []SellerTierChange) {
	sort.Slice(changes, func(i, j int) bool {
		mi, mj := abs(changes[i].Change), abs(changes[j].Change)
		if mi != mj {
			return mi > mj
		}
		return changes[i].SellerID < changes[j].SellerID
	})
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// AnalyzePeriodComparison compares target with target-1 (MoM) and target-12 (YoY).
// A companion month absent from AvailableMonths leaves its field nil.
func (e *Engine) AnalyzePeriodComparison(ctx context.Context, target models.Month, lookback int) (*PeriodComparisonResult, error) {
	res := &PeriodComparisonResult{TargetMonth: target, Lookback: lookback}

	targetProfile, err := e.BuildMonthlySellerProfile(ctx, target, lookback)
	if err != nil {
		return nil, err
	}

	companions := []struct {
		kind  string
		month models.Month
		dst   **Comparison
	}{
		{KindMoM, target.AddMonths(-1), &res.MoM},
		{KindYoY, target.AddMonths(-12), &res.YoY},
	}
	for _, c := range companions {
		if !e.IsAvailable(c.month) {
			logger.Info("%s comparison for %s skipped: no data for %s", c.kind, target, c.month)
			continue
		}
		p, err := e.BuildMonthlySellerProfile(ctx, c.month, lookback)
		if err != nil {
			return nil, err
		}
		*c.dst = Compare(c.kind, p, targetProfile)
	}
	return res, nil
}
