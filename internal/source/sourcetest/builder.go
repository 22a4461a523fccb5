// Package sourcetest builds small in-memory datasets for tests.
package sourcetest

import (
	"fmt"
	"time"

	"github.com/Quintas0658/olist-ecommerce-project/internal/models"
	"github.com/Quintas0658/olist-ecommerce-project/internal/source"
)

// Builder accumulates raw tables.
type Builder struct {
	tables  source.Tables
	sellers map[string]bool
	seq     int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{sellers: make(map[string]bool)}
}

// Seller registers a seller. Sales for unknown sellers register them implicitly.
func (b *Builder) Seller(id, city, state string) *Builder {
	if b.sellers[id] {
		return b
	}
	b.sellers[id] = true
	b.tables.Sellers = append(b.tables.Sellers, source.Seller{
		SellerID: id, City: city, State: state,
	})
	return b
}

// Sale is one delivered single-item order.
type Sale struct {
	Seller   string
	Month    string // "YYYY-MM"
	Day      int    // defaults to 15
	Price    float64
	Freight  float64
	Score    int // 0 means no review
	Status   string
	Product  string
	Category string
	// ShipDays and DeliverDays are carrier and customer lead times; negative means unknown.
	ShipDays    int
	DeliverDays int
}

// Add records a sale as an order, an order item, a product and optionally a review.
func (b *Builder) Add(s Sale) *Builder {
	b.Seller(s.Seller, "", "")
	b.seq++

	m := models.MustParseMonth(s.Month)
	day := s.Day
	if day == 0 {
		day = 15
	}
	purchased := time.Date(m.Year, m.Month, day, 10, 0, 0, 0, time.UTC)
	status := s.Status
	if status == "" {
		status = source.StatusDelivered
	}
	product := s.Product
	if product == "" {
		product = "p-" + s.Seller
	}

	o := source.Order{
		OrderID:     fmt.Sprintf("o%05d", b.seq),
		CustomerID:  fmt.Sprintf("c%05d", b.seq),
		Status:      status,
		PurchasedAt: purchased,
	}
	if s.ShipDays >= 0 {
		o.DeliveredCarrierAt = purchased.Add(time.Duration(s.ShipDays) * 24 * time.Hour)
		if s.DeliverDays >= 0 {
			o.DeliveredCustomerAt = o.DeliveredCarrierAt.Add(time.Duration(s.DeliverDays) * 24 * time.Hour)
		}
	}
	b.tables.Orders = append(b.tables.Orders, o)
	b.tables.OrderItems = append(b.tables.OrderItems, source.OrderItem{
		OrderID: o.OrderID, ItemIndex: 1, ProductID: product, SellerID: s.Seller,
		Price: s.Price, FreightValue: s.Freight,
	})
	b.tables.Products = append(b.tables.Products, source.Product{ProductID: product, Category: s.Category})
	if s.Score > 0 {
		b.tables.Reviews = append(b.tables.Reviews, source.Review{
			ReviewID: "r" + o.OrderID, OrderID: o.OrderID, Score: s.Score,
		})
	}
	return b
}

// Sales records n identical sales for a seller in a month.
func (b *Builder) Sales(seller, month string, n int, price float64, score int) *Builder {
	for i := 0; i < n; i++ {
		b.Add(Sale{Seller: seller, Month: month, Price: price, Score: score})
	}
	return b
}

// Tier records enough sales for seller to land exactly in tier t for a
// single-month window, using the default thresholds.
func (b *Builder) Tier(seller, month string, t models.Tier) *Builder {
	switch t {
	case models.TierPlatinum:
		return b.Sales(seller, month, 200, 250, 5)
	case models.TierGold:
		return b.Sales(seller, month, 50, 200, 4)
	case models.TierSilver:
		return b.Sales(seller, month, 10, 200, 4)
	case models.TierBronze:
		return b.Sales(seller, month, 3, 200, 4)
	default:
		return b.Sales(seller, month, 1, 50, 4)
	}
}

// Tables returns the accumulated tables.
func (b *Builder) Tables() source.Tables {
	return b.tables
}

// Dataset indexes the accumulated tables.
func (b *Builder) Dataset() *source.Dataset {
	return source.New(b.tables)
}
