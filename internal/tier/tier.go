// Package tier classifies sellers into the five ordered business tiers.
//
// Classification walks the tiers from the highest rank down and assigns the first tier
// whose GMV, order and rating floors are all met. Sellers meeting no floor fall back to
// Basic, so Classify is total. A tier in month M carries no dependency on month M-1.
package tier

import (
	"errors"
	"fmt"

	"github.com/Quintas0658/olist-ecommerce-project/internal/models"
)

// ErrNonMonotonic is returned when a threshold table does not rise with rank.
var ErrNonMonotonic = errors.New("tier thresholds must be non-decreasing with rank")

// Threshold holds the minimum values a seller must reach for a tier.
type Threshold struct {
	MinGMV    float64 `json:"min_gmv"`
	MinOrders int     `json:"min_orders"`
	MinRating float64 `json:"min_rating"`
}

// Table maps each tier, indexed by ordinal, to its thresholds.
type Table [models.NumTiers]Threshold

// DefaultTable is the canonical threshold table.
//
// The seller dashboard classifier does not require a rating for Gold,
// Silver and Bronze; this table requires one at every tier above Basic. Confirm with the
// business owner before changing it.
var DefaultTable = Table{
	models.TierBasic:    {MinGMV: 0, MinOrders: 0, MinRating: 0},
	models.TierBronze:   {MinGMV: 500, MinOrders: 3, MinRating: 2.5},
	models.TierSilver:   {MinGMV: 2000, MinOrders: 10, MinRating: 3.0},
	models.TierGold:     {MinGMV: 10000, MinOrders: 50, MinRating: 3.5},
	models.TierPlatinum: {MinGMV: 50000, MinOrders: 200, MinRating: 4.0},
}

// Validate checks that Basic has no floor and thresholds never decrease with rank.
func (t Table) Validate() error {
	if t[models.TierBasic] != (Threshold{}) {
		return errors.New("basic tier thresholds must all be zero")
	}
	for i := 1; i < models.NumTiers; i++ {
		lo, hi := t[i-1], t[i]
		if hi.MinGMV < lo.MinGMV || hi.MinOrders < lo.MinOrders || hi.MinRating < lo.MinRating {
			return fmt.Errorf("%w: %s is below %s", ErrNonMonotonic, models.Tier(i), models.Tier(i-1))
		}
		if hi.MinGMV < 0 || hi.MinOrders < 0 || hi.MinRating < 0 {
			return fmt.Errorf("%s thresholds must not be negative", models.Tier(i))
		}
	}
	return nil
}

// Classifier assigns tiers from a fixed threshold table.
type Classifier struct {
	table Table
}

// New returns a Classifier for the given table after validating it.
func New(table Table) (*Classifier, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{table: table}, nil
}

// Default returns a Classifier using DefaultTable.
func Default() *Classifier {
	return &Classifier{table: DefaultTable}
}

// Table returns a copy of the classifier's thresholds.
func (c *Classifier) Table() Table {
	return c.table
}

// Classify returns the highest tier whose thresholds the metrics meet.
func (c *Classifier) Classify(m models.SellerMetrics) models.Tier {
	return c.ClassifyValues(m.TotalGMV, m.UniqueOrders, m.AvgReviewScore)
}

// ClassifyValues is Classify over the three deciding values.
func (c *Classifier) ClassifyValues(gmv float64, orders int, rating float64) models.Tier {
	for i := models.NumTiers - 1; i > 0; i-- {
		th := c.table[i]
		if gmv >= th.MinGMV && orders >= th.MinOrders && rating >= th.MinRating {
			return models.Tier(i)
		}
	}
	return models.TierBasic
}

// Conforms reports whether a profile row's tier matches its metrics.
func (c *Classifier) Conforms(p models.SellerProfile) bool {
	return c.Classify(p.SellerMetrics) == p.Tier
}
