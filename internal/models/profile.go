// Package models defines the domain entities shared by the seller tier analysis:
// calendar months, the ordered tier enumeration, per-seller window metrics and the
// monthly profile tables built from them.
//
// A MonthlyProfile is built once per (month, lookback) and treated as immutable.
// Every seller row carries a tier that is a pure function of its metrics.
package models

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// SellerMetrics holds the aggregates computed for one seller over a lookback window.
// Rates are percentages (0-100). Missing data defaults to zero.
type SellerMetrics struct {
	TotalGMV      float64 `json:"total_gmv"`
	AvgOrderValue float64 `json:"avg_order_value"` // mean item price
	TotalItems    int     `json:"total_items"`
	TotalFreight  float64 `json:"total_freight"`
	AvgFreight    float64 `json:"avg_freight"`
	UniqueOrders  int     `json:"unique_orders"`

	AvgReviewScore float64 `json:"avg_review_score"`
	ReviewCount    int     `json:"review_count"`
	ReviewScoreStd float64 `json:"review_score_std"`
	BadReviewRate  float64 `json:"bad_review_rate"`

	AvgShippingDays     float64 `json:"avg_shipping_days"`
	MedianShippingDays  float64 `json:"median_shipping_days"`
	AvgDeliveryDays     float64 `json:"avg_delivery_days"`
	MedianDeliveryDays  float64 `json:"median_delivery_days"`
	DeliverySuccessRate float64 `json:"delivery_success_rate"`

	CategoryCount int `json:"category_count"`
	SKUCount      int `json:"sku_count"`

	FirstOrderAt   time.Time `json:"first_order_at"`
	LastOrderAt    time.Time `json:"last_order_at"`
	ActiveDays     int       `json:"active_days"`
	OrderFrequency float64   `json:"order_frequency"`

	RevenuePerOrder float64 `json:"revenue_per_order"`
	ItemsPerOrder   float64 `json:"items_per_order"`
	IsActive        bool    `json:"is_active"`
}

// SellerProfile is one row of a monthly profile table.
type SellerProfile struct {
	SellerID       string `json:"seller_id"`
	SellerCity     string `json:"seller_city,omitempty"`
	SellerState    string `json:"seller_state,omitempty"`
	AnalysisMonth  Month  `json:"-"`
	LookbackMonths int    `json:"lookback_months"`
	SellerMetrics
	Tier Tier `json:"tier"`
}

// Validate checks that the profile row is internally consistent.
func (p *SellerProfile) Validate() error {
	if p.SellerID == "" {
		return errors.New("seller ID must not be empty")
	}
	if p.AnalysisMonth.IsZero() {
		return errors.New("analysis month must be set")
	}
	if p.LookbackMonths < 0 {
		return errors.New("lookback months must not be negative")
	}
	if !p.Tier.Valid() {
		return fmt.Errorf("invalid tier %d", int(p.Tier))
	}
	if p.TotalGMV < 0 {
		return errors.New("total GMV must not be negative")
	}
	if p.UniqueOrders < 0 || p.TotalItems < 0 {
		return errors.New("order and item counts must not be negative")
	}
	if p.BadReviewRate < 0 || p.BadReviewRate > 100 {
		return errors.New("bad review rate must be between 0 and 100")
	}
	if p.DeliverySuccessRate < 0 || p.DeliverySuccessRate > 100 {
		return errors.New("delivery success rate must be between 0 and 100")
	}
	if p.AvgReviewScore < 0 || p.AvgReviewScore > 5 {
		return errors.New("average review score must be between 0 and 5")
	}
	if p.IsActive != (p.TotalGMV > 0) {
		return errors.New("is_active must equal total_gmv > 0")
	}
	return nil
}

// ProfileKey identifies a cached monthly profile.
type ProfileKey struct {
	Month    Month
	Lookback int
}

// String formats the key as "YYYY-MM/lbN".
func (k ProfileKey) String() string {
	return fmt.Sprintf("%s/lb%d", k.Month, k.Lookback)
}

// MonthlyProfile is the per-seller table for one (month, lookback) window.
type MonthlyProfile struct {
	Month    Month
	Lookback int
	BuiltAt  time.Time
	Sellers  []SellerProfile // sorted by SellerID

	index map[string]int
}

// NewMonthlyProfile sorts the rows by seller ID and indexes them.
func NewMonthlyProfile(month Month, lookback int, rows []SellerProfile, builtAt time.Time) *MonthlyProfile {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].SellerID < rows[j].SellerID
	})
	index := make(map[string]int, len(rows))
	for i := range rows {
		index[rows[i].SellerID] = i
	}
	return &MonthlyProfile{
		Month:    month,
		Lookback: lookback,
		BuiltAt:  builtAt,
		Sellers:  rows,
		index:    index,
	}
}

// Key returns the cache key of the profile.
func (p *MonthlyProfile) Key() ProfileKey {
	return ProfileKey{Month: p.Month, Lookback: p.Lookback}
}

// Len returns the number of seller rows.
func (p *MonthlyProfile) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Sellers)
}

// Seller looks up a seller row by ID.
func (p *MonthlyProfile) Seller(id string) (SellerProfile, bool) {
	if p == nil {
		return SellerProfile{}, false
	}
	i, ok := p.index[id]
	if !ok {
		return SellerProfile{}, false
	}
	return p.Sellers[i], true
}

// TierOf returns the tier of a seller in this month, if observed.
func (p *MonthlyProfile) TierOf(id string) (Tier, bool) {
	s, ok := p.Seller(id)
	return s.Tier, ok
}
