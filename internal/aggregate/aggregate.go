// Package aggregate computes per-seller performance metrics over a trailing window
// of calendar months.
//
// The window for target month M and lookback L covers every month in [M-L, M].
// Orders are selected by purchase month; each order item contributes one row,
// joined with the order's reviews and the product's category. Sellers without rows
// in the window get no entry; callers zero-fill them.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Quintas0658/olist-ecommerce-project/internal/models"
	"github.com/Quintas0658/olist-ecommerce-project/internal/source"
)

// badReviewMax is the highest review score counted as a bad review.
const badReviewMax = 2

// Window is the inclusive month range aggregated for a target month.
type Window struct {
	Start models.Month
	End   models.Month
}

// NewWindow returns the window ending at target that reaches lookback months back.
func NewWindow(target models.Month, lookback int) (Window, error) {
	if lookback < 0 {
		return Window{}, fmt.Errorf("lookback months must not be negative, got %d", lookback)
	}
	return Window{Start: target.AddMonths(-lookback), End: target}, nil
}

// Contains reports whether t's purchase month lies inside the window.
func (w Window) Contains(t time.Time) bool {
	return models.MonthOf(t).Within(w.Start, w.End)
}

// acc accumulates the raw rows of one seller.
type acc struct {
	prices    []float64
	freight   float64
	orders    map[string]bool
	products  map[string]bool
	cats      map[string]bool
	scores    []float64
	bad       int
	shipping  []float64
	delivery  []float64
	delivered int
	first     time.Time
	last      time.Time
}

func newAcc() *acc {
	return &acc{
		orders:   make(map[string]bool),
		products: make(map[string]bool),
		cats:     make(map[string]bool),
	}
}

// Aggregate computes metrics for every seller with at least one order item in the
// window. An empty window yields an empty map.
func Aggregate(ds *source.Dataset, target models.Month, lookback int) (map[string]models.SellerMetrics, error) {
	w, err := NewWindow(target, lookback)
	if err != nil {
		return nil, err
	}

	accs := make(map[string]*acc)
	for _, o := range ds.Orders() {
		if o.PurchasedAt.IsZero() || !w.Contains(o.PurchasedAt) {
			continue
		}
		reviews := ds.ReviewsOf(o.OrderID)
		for _, it := range ds.ItemsOf(o.OrderID) {
			a, ok := accs[it.SellerID]
			if !ok {
				a = newAcc()
				accs[it.SellerID] = a
			}
			a.add(o, it, reviews, ds.CategoryOf(it.ProductID))
		}
	}

	out := make(map[string]models.SellerMetrics, len(accs))
	for id, a := range accs {
		out[id] = a.metrics()
	}
	return out, nil
}

func (a *acc) add(o source.Order, it source.OrderItem, reviews []source.Review, category string) {
	a.prices = append(a.prices, it.Price)
	a.freight += it.FreightValue
	a.orders[o.OrderID] = true
	a.products[it.ProductID] = true
	if category != "" {
		a.cats[category] = true
	}

	for _, r := range reviews {
		a.scores = append(a.scores, float64(r.Score))
		if r.Score <= badReviewMax {
			a.bad++
		}
	}

	if !o.DeliveredCarrierAt.IsZero() {
		a.shipping = append(a.shipping, days(o.DeliveredCarrierAt.Sub(o.PurchasedAt)))
		if !o.DeliveredCustomerAt.IsZero() {
			a.delivery = append(a.delivery, days(o.DeliveredCustomerAt.Sub(o.DeliveredCarrierAt)))
		}
	}
	if o.Status == source.StatusDelivered {
		a.delivered++
	}

	if a.first.IsZero() || o.PurchasedAt.Before(a.first) {
		a.first = o.PurchasedAt
	}
	if o.PurchasedAt.After(a.last) {
		a.last = o.PurchasedAt
	}
}

func (a *acc) metrics() models.SellerMetrics {
	items := len(a.prices)
	gmv := sum(a.prices)

	m := models.SellerMetrics{
		TotalGMV:      round(gmv, 2),
		AvgOrderValue: round(mean(a.prices), 2),
		TotalItems:    items,
		TotalFreight:  round(a.freight, 2),
		UniqueOrders:  len(a.orders),

		AvgReviewScore: round(mean(a.scores), 2),
		ReviewCount:    len(a.scores),
		ReviewScoreStd: round(sampleStdDev(a.scores), 2),

		AvgShippingDays:    round(mean(a.shipping), 2),
		MedianShippingDays: round(median(a.shipping), 2),
		AvgDeliveryDays:    round(mean(a.delivery), 2),
		MedianDeliveryDays: round(median(a.delivery), 2),

		CategoryCount: len(a.cats),
		SKUCount:      len(a.products),

		FirstOrderAt: a.first,
		LastOrderAt:  a.last,
	}
	if items > 0 {
		m.AvgFreight = round(a.freight/float64(items), 2)
		m.DeliverySuccessRate = round(float64(a.delivered)/float64(items)*100, 2)
	}
	if len(a.scores) > 0 {
		m.BadReviewRate = round(float64(a.bad)/float64(len(a.scores))*100, 2)
	}
	if !a.first.IsZero() {
		m.ActiveDays = int(days(a.last.Sub(a.first))) + 1
		m.OrderFrequency = round(float64(items)/float64(m.ActiveDays), 4)
	}
	Derive(&m)
	return m
}

// Derive fills the ratios computed from other metrics. It is also applied to
// zero-filled rows so derived fields never divide by zero.
func Derive(m *models.SellerMetrics) {
	orders := m.UniqueOrders
	if orders == 0 {
		orders = 1
	}
	m.RevenuePerOrder = round(m.TotalGMV/float64(orders), 2)
	m.ItemsPerOrder = round(float64(m.TotalItems)/float64(orders), 2)
	m.IsActive = m.TotalGMV > 0
}

// days converts a duration to whole days, rounding toward negative infinity.
func days(d time.Duration) float64 {
	return math.Floor(d.Hours() / 24)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func sum(vs []float64) float64 {
	var s float64
	for _, v := range vs {
		s += v
	}
	return s
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	return sum(vs) / float64(len(vs))
}

func median(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	s := append([]float64(nil), vs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// sampleStdDev is the Bessel-corrected standard deviation; 0 below two values.
func sampleStdDev(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	mu := mean(vs)
	var ss float64
	for _, v := range vs {
		d := v - mu
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vs)-1))
}
