package analyzer

import (
	"context"

	"github.com/Quintas0658/olist-ecommerce-project/internal/models"
	"github.com/Quintas0658/olist-ecommerce-project/internal/pivot"
)

// MonthlySummary condenses one monthly profile. Totals and averages cover active
// sellers; the tier distribution covers every seller in the profile.
type MonthlySummary struct {
	AnalysisMonth    models.Month               `json:"-"`
	Lookback         int                        `json:"lookback_months"`
	TotalSellers     int                        `json:"total_sellers"`
	ActiveSellers    int                        `json:"active_sellers"`
	TotalGMV         float64                    `json:"total_gmv"`
	AvgGMVPerSeller  float64                    `json:"avg_gmv_per_seller"`
	TotalOrders      int                        `json:"total_orders"`
	AvgRating        float64                    `json:"avg_rating"`
	TierDistribution []pivot.Bucket[models.Tier] `json:"tier_distribution"`
}

// Summarize computes the summary of a profile.
func Summarize(p *models.MonthlyProfile) MonthlySummary {
	s := MonthlySummary{TotalSellers: p.Len()}
	if p != nil {
		s.AnalysisMonth = p.Month
		s.Lookback = p.Lookback
	}

	tiers := make([]models.Tier, 0, p.Len())
	var ratingSum float64
	if p != nil {
		for _, row := range p.Sellers {
			tiers = append(tiers, row.Tier)
			if !row.IsActive {
				continue
			}
			s.ActiveSellers++
			s.TotalGMV += row.TotalGMV
			s.TotalOrders += row.UniqueOrders
			ratingSum += row.AvgReviewScore
		}
	}
	if s.ActiveSellers > 0 {
		s.AvgGMVPerSeller = s.TotalGMV / float64(s.ActiveSellers)
		s.AvgRating = ratingSum / float64(s.ActiveSellers)
	}
	s.TierDistribution = pivot.Count(models.AllTiers(), tiers)
	return s
}

// MonthlySummary builds (or reuses) the profile for month and summarizes it.
func (e *Engine) MonthlySummary(ctx context.Context, month models.Month, lookback int) (MonthlySummary, error) {
	p, err := e.BuildMonthlySellerProfile(ctx, month, lookback)
	if err != nil {
		return MonthlySummary{}, err
	}
	return Summarize(p), nil
}
