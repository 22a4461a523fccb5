package analyzer

import (
	"github.com/Quintas0658/olist-ecommerce-project/internal/models"
	"github.com/Quintas0658/olist-ecommerce-project/internal/pivot"
)

// FlowMatrix cross-tabulates origin tiers (rows, month From) against destination
// tiers (columns, month To) for sellers present in both months. Rows and columns
// cover every tier in ascending order; the margins are the "All" row and column.
type FlowMatrix struct {
	From models.Month
	To   models.Month
	*pivot.Table[models.Tier, models.Tier]
}

// Common returns the number of sellers observed in both months.
func (f *FlowMatrix) Common() int {
	return f.Total
}

// Stable returns the number of sellers whose tier did not change.
func (f *FlowMatrix) Stable() int {
	return f.Diagonal()
}

// Upgraded returns the number of sellers whose tier rose.
func (f *FlowMatrix) Upgraded() int {
	var n int
	for i := range f.Rows {
		for j := i + 1; j < len(f.Cols); j++ {
			n += f.Cells[i][j]
		}
	}
	return n
}

// Downgraded returns the number of sellers whose tier fell.
func (f *FlowMatrix) Downgraded() int {
	return f.Common() - f.Stable() - f.Upgraded()
}

// Flow inner-joins two profiles on seller ID and counts tier moves from a to b.
// New and churned sellers do not appear.
func Flow(a, b *models.MonthlyProfile) *FlowMatrix {
	pairs := make([]pivot.Pair[models.Tier, models.Tier], 0, a.Len())
	if a != nil {
		for _, s := range a.Sellers {
			to, ok := b.TierOf(s.SellerID)
			if !ok {
				continue
			}
			pairs = append(pairs, pivot.Pair[models.Tier, models.Tier]{Row: s.Tier, Col: to})
		}
	}
	f := &FlowMatrix{Table: pivot.CrossTab(models.AllTiers(), models.AllTiers(), pairs)}
	if a != nil {
		f.From = a.Month
	}
	if b != nil {
		f.To = b.Month
	}
	return f
}

// TierStability summarizes how many sellers of a baseline tier kept it.
type TierStability struct {
	Tier    models.Tier `json:"tier"`
	Total   int         `json:"total_sellers"`
	Stable  int         `json:"stable_sellers"`
	Changed int         `json:"changed_sellers"`
	Rate    float64     `json:"stability_rate"`
}

// Stability groups the sellers of the first profile by tier and counts those whose
// tier is identical in every later profile where they are observed. It needs at least
// two profiles; tiers without baseline sellers are omitted.
func Stability(profiles []*models.MonthlyProfile) map[models.Tier]TierStability {
	out := make(map[models.Tier]TierStability)
	if len(profiles) < 2 || profiles[0] == nil {
		return out
	}

	for _, s := range profiles[0].Sellers {
		stable := true
		for _, p := range profiles[1:] {
			if t, ok := p.TierOf(s.SellerID); ok && t != s.Tier {
				stable = false
				break
			}
		}
		st := out[s.Tier]
		st.Tier = s.Tier
		st.Total++
		if stable {
			st.Stable++
		} else {
			st.Changed++
		}
		out[s.Tier] = st
	}

	for t, st := range out {
		st.Rate = ratio(st.Stable, st.Total)
		out[t] = st
	}
	return out
}

// SortedStability returns the stability entries in ascending tier order.
func SortedStability(m map[models.Tier]TierStability) []TierStability {
	out := make([]TierStability, 0, len(m))
	for _, t := range models.AllTiers() {
		if st, ok := m[t]; ok {
			out = append(out, st)
		}
	}
	return out
}
