package analyzer

import (
	"context"

	"github.com/Quintas0658/olist-ecommerce-project/internal/models"
)

// MonthlyTier is one seller's tier in one month.
type MonthlyTier struct {
	SellerID     string       `json:"seller_id"`
	Month        models.Month `json:"-"`
	Tier         models.Tier  `json:"business_tier"`
	TotalGMV     float64      `json:"total_gmv"`
	UniqueOrders int          `json:"unique_orders"`
}

// TierChangeResult is the tier movement over a list of months.
type TierChangeResult struct {
	Months      []models.Month
	MonthlyData []MonthlyTier
	// Flow covers the last two months; nil with fewer than two months.
	Flow      *FlowMatrix
	Stability map[models.Tier]TierStability
}

// AnalyzeTierChanges builds the profiles for months and reports per-seller tiers, the
// flow between the last two months and stability from the first month. Months are
// analyzed in ascending order.
func (e *Engine) AnalyzeTierChanges(ctx context.Context, months []models.Month, lookback int) (*TierChangeResult, error) {
	ordered := sortedMonths(months)
	profiles, err := e.profiles(ctx, ordered, lookback)
	if err != nil {
		return nil, err
	}

	res := &TierChangeResult{
		Months:      ordered,
		MonthlyData: []MonthlyTier{},
		Stability:   Stability(profiles),
	}
	for _, p := range profiles {
		for _, s := range p.Sellers {
			res.MonthlyData = append(res.MonthlyData, MonthlyTier{
				SellerID:     s.SellerID,
				Month:        p.Month,
				Tier:         s.Tier,
				TotalGMV:     s.TotalGMV,
				UniqueOrders: s.UniqueOrders,
			})
		}
	}
	if n := len(profiles); n >= 2 {
		res.Flow = Flow(profiles[n-2], profiles[n-1])
	}
	return res, nil
}
