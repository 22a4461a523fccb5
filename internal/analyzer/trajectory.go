package analyzer

import (
	"context"
	"sort"
	"strings"

	"github.com/Quintas0658/olist-ecommerce-project/internal/logger"
	"github.com/Quintas0658/olist-ecommerce-project/internal/models"
)

// TrajectoryType classifies a seller's tier sequence.
type TrajectoryType string

const (
	TrajectoryRise        TrajectoryType = "continuous rise"
	TrajectoryDecline     TrajectoryType = "continuous decline"
	TrajectoryFluctuating TrajectoryType = "frequent fluctuation"
	TrajectoryStable      TrajectoryType = "stable"
)

// TrajectoryTypes lists the types in report order.
func TrajectoryTypes() []TrajectoryType {
	return []TrajectoryType{TrajectoryRise, TrajectoryDecline, TrajectoryFluctuating, TrajectoryStable}
}

// TrajectoryRecord describes one seller's tiers across the analyzed months.
type TrajectoryRecord struct {
	SellerID       string         `json:"seller_id"`
	Months         []models.Month `json:"-"`
	Tiers          []models.Tier  `json:"tiers"`
	TierPath       string         `json:"tier_path"`
	MonthsObserved int            `json:"months_observed"`
	TotalChanges   int            `json:"total_changes"`
	Volatility     float64        `json:"volatility"`
	Trend          float64        `json:"trend"`
	Type           TrajectoryType `json:"trajectory_type"`
}

// TrajectoryResult holds the qualifying sellers and a count per trajectory type.
type TrajectoryResult struct {
	Records      []TrajectoryRecord     `json:"trajectory_data"`
	Summary      map[TrajectoryType]int `json:"trajectory_summary"`
	TotalSellers int                    `json:"total_sellers"`
}

// Thresholds are the trend and volatility cut-offs for trajectory types.
type Thresholds struct {
	Trend      float64
	Volatility float64
}

// Classify maps a trend and volatility to a trajectory type. Trend takes precedence.
func (t Thresholds) Classify(trend, volatility float64) TrajectoryType {
	switch {
	case trend > t.Trend:
		return TrajectoryRise
	case trend < -t.Trend:
		return TrajectoryDecline
	case volatility > t.Volatility:
		return TrajectoryFluctuating
	default:
		return TrajectoryStable
	}
}

// Trajectories computes the trajectory of every seller observed in at least
// minMonths of the profiles. Profiles must be in month order.
func Trajectories(profiles []*models.MonthlyProfile, minMonths int, th Thresholds) *TrajectoryResult {
	type observation struct {
		months []models.Month
		tiers  []models.Tier
	}
	seq := make(map[string]*observation)
	for _, p := range profiles {
		if p == nil {
			continue
		}
		for _, s := range p.Sellers {
			o, ok := seq[s.SellerID]
			if !ok {
				o = &observation{}
				seq[s.SellerID] = o
			}
			o.months = append(o.months, p.Month)
			o.tiers = append(o.tiers, s.Tier)
		}
	}

	res := &TrajectoryResult{
		Records: []TrajectoryRecord{},
		Summary: make(map[TrajectoryType]int),
	}
	for id, o := range seq {
		if len(o.tiers) < minMonths {
			continue
		}
		res.Records = append(res.Records, newRecord(id, o.months, o.tiers, th))
	}
	sort.Slice(res.Records, func(i, j int) bool {
		return res.Records[i].SellerID < res.Records[j].SellerID
	})
	for _, r := range res.Records {
		res.Summary[r.Type]++
	}
	res.TotalSellers = len(res.Records)
	return res
}

func newRecord(id string, months []models.Month, tiers []models.Tier, th Thresholds) TrajectoryRecord {
	ordinals := make([]float64, len(tiers))
	names := make([]string, len(tiers))
	changes := 0
	for i, t := range tiers {
		ordinals[i] = float64(t.Ordinal())
		names[i] = t.String()
		if i > 0 && t != tiers[i-1] {
			changes++
		}
	}
	trend := olsSlope(ordinals)
	volatility := populationStdDev(ordinals)
	return TrajectoryRecord{
		SellerID:       id,
		Months:         months,
		Tiers:          tiers,
		TierPath:       strings.Join(names, " → "),
		MonthsObserved: len(tiers),
		TotalChanges:   changes,
		Volatility:     volatility,
		Trend:          trend,
		Type:           th.Classify(trend, volatility),
	}
}

// AnalyzeSellerTrajectory builds the profiles for months and classifies every seller
// observed in at least minMonths of them. Months are analyzed in ascending order.
func (e *Engine) AnalyzeSellerTrajectory(ctx context.Context, months []models.Month, minMonths, lookback int) (*TrajectoryResult, error) {
	ordered := sortedMonths(months)
	profiles, err := e.profiles(ctx, ordered, lookback)
	if err != nil {
		return nil, err
	}
	res := Trajectories(profiles, minMonths, Thresholds{
		Trend:      e.opts.TrendThreshold,
		Volatility: e.opts.VolatilityThreshold,
	})
	logger.Info("Trajectory over %d months: %d sellers with at least %d observations",
		len(ordered), res.TotalSellers, minMonths)
	return res, nil
}

// sortedMonths returns a deduplicated ascending copy of months.
func sortedMonths(months []models.Month) []models.Month {
	out := make([]models.Month, 0, len(months))
	seen := make(map[models.Month]bool, len(months))
	for _, m := range months {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
