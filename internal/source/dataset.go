// Package source exposes the cleaned Olist tables as an in-memory Dataset.
//
// Tables are loaded wholesale, once, before any analysis runs: from a directory of
// CSV exports (LoadCSV) or from a MySQL/SQLite database (LoadSQL). Loading never
// cleans data; a missing table, a missing required column or a record that fails
// validation is reported as a *MalformedDataError, the only fatal error class.
package source

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Quintas0658/olist-ecommerce-project/internal/models"
)

// Order statuses referenced by the aggregator.
const (
	StatusDelivered = "delivered"
)

// Seller is a row of the sellers table.
type Seller struct {
	SellerID      string `validate:"required"`
	ZipCodePrefix string
	City          string
	State         string
}

// Order is a row of the orders table. Zero times mean "unknown".
type Order struct {
	OrderID             string    `validate:"required"`
	CustomerID          string
	Status              string
	PurchasedAt         time.Time `validate:"required"`
	DeliveredCarrierAt  time.Time
	DeliveredCustomerAt time.Time
}

// OrderItem is a row of the order items table.
type OrderItem struct {
	OrderID      string  `validate:"required"`
	ItemIndex    int     `validate:"gte=1"`
	ProductID    string  `validate:"required"`
	SellerID     string  `validate:"required"`
	Price        float64 `validate:"gte=0"`
	FreightValue float64 `validate:"gte=0"`
}

// Review is a row of the order reviews table.
type Review struct {
	ReviewID string
	OrderID  string `validate:"required"`
	Score    int    `validate:"min=1,max=5"`
}

// Product is a row of the products table.
type Product struct {
	ProductID string `validate:"required"`
	Category  string
}

// Tables groups the raw record slices before indexing.
type Tables struct {
	Sellers    []Seller
	Orders     []Order
	OrderItems []OrderItem
	Reviews    []Review
	Products   []Product
}

// Dataset is an indexed, read-only snapshot of the raw tables.
type Dataset struct {
	sellers  []Seller
	orders   []Order
	items    map[string][]OrderItem
	reviews  map[string][]Review
	category map[string]string
	months   []models.Month
	counts   map[string]int
}

// New indexes the tables into a Dataset. Orders are sorted by purchase time.
func New(t Tables) *Dataset {
	ds := &Dataset{
		sellers:  append([]Seller(nil), t.Sellers...),
		orders:   append([]Order(nil), t.Orders...),
		items:    make(map[string][]OrderItem),
		reviews:  make(map[string][]Review),
		category: make(map[string]string, len(t.Products)),
		counts: map[string]int{
			TableSellers:    len(t.Sellers),
			TableOrders:     len(t.Orders),
			TableOrderItems: len(t.OrderItems),
			TableReviews:    len(t.Reviews),
			TableProducts:   len(t.Products),
		},
	}

	sort.Slice(ds.sellers, func(i, j int) bool { return ds.sellers[i].SellerID < ds.sellers[j].SellerID })
	sort.SliceStable(ds.orders, func(i, j int) bool {
		if !ds.orders[i].PurchasedAt.Equal(ds.orders[j].PurchasedAt) {
			return ds.orders[i].PurchasedAt.Before(ds.orders[j].PurchasedAt)
		}
		return ds.orders[i].OrderID < ds.orders[j].OrderID
	})

	for _, it := range t.OrderItems {
		ds.items[it.OrderID] = append(ds.items[it.OrderID], it)
	}
	for _, r := range t.Reviews {
		ds.reviews[r.OrderID] = append(ds.reviews[r.OrderID], r)
	}
	for _, p := range t.Products {
		ds.category[p.ProductID] = p.Category
	}

	seen := make(map[models.Month]bool)
	for _, o := range ds.orders {
		if o.PurchasedAt.IsZero() {
			continue
		}
		m := models.MonthOf(o.PurchasedAt)
		if !seen[m] {
			seen[m] = true
			ds.months = append(ds.months, m)
		}
	}
	sort.Slice(ds.months, func(i, j int) bool { return ds.months[i].Before(ds.months[j]) })

	return ds
}

// Sellers returns the sellers sorted by ID.
func (d *Dataset) Sellers() []Seller { return d.sellers }

// Orders returns the orders sorted by purchase time.
func (d *Dataset) Orders() []Order { return d.orders }

// ItemsOf returns the items of an order.
func (d *Dataset) ItemsOf(orderID string) []OrderItem { return d.items[orderID] }

// ReviewsOf returns the reviews of an order.
func (d *Dataset) ReviewsOf(orderID string) []Review { return d.reviews[orderID] }

// CategoryOf returns the category of a product, or "" when unknown.
func (d *Dataset) CategoryOf(productID string) string { return d.category[productID] }

// Months returns the sorted distinct purchase months present in the orders table.
func (d *Dataset) Months() []models.Month {
	return append([]models.Month(nil), d.months...)
}

// HasMonth reports whether any order was purchased in m.
func (d *Dataset) HasMonth(m models.Month) bool {
	i := sort.Search(len(d.months), func(i int) bool { return !d.months[i].Before(m) })
	return i < len(d.months) && d.months[i] == m
}

// Counts returns the number of loaded records per table.
func (d *Dataset) Counts() map[string]int {
	out := make(map[string]int, len(d.counts))
	for k, v := range d.counts {
		out[k] = v
	}
	return out
}

// Validate checks every record against its field rules.
func (t Tables) Validate() error {
	v := validator.New()

	check := func(table string, n int, row func(i int) any) error {
		for i := 0; i < n; i++ {
			if err := v.Struct(row(i)); err != nil {
				return &MalformedDataError{Table: table, Row: i + 1, Err: err}
			}
		}
		return nil
	}

	if err := check(TableSellers, len(t.Sellers), func(i int) any { return t.Sellers[i] }); err != nil {
		return err
	}
	if err := check(TableOrders, len(t.Orders), func(i int) any { return t.Orders[i] }); err != nil {
		return err
	}
	if err := check(TableOrderItems, len(t.OrderItems), func(i int) any { return t.OrderItems[i] }); err != nil {
		return err
	}
	if err := check(TableReviews, len(t.Reviews), func(i int) any { return t.Reviews[i] }); err != nil {
		return err
	}
	return check(TableProducts, len(t.Products), func(i int) any { return t.Products[i] })
}

// MalformedDataError reports a raw table that cannot be used.
type MalformedDataError struct {
	Table  string
	Column string
	Row    int // 1-based data row, 0 when not row specific
	Err    error
}

func (e *MalformedDataError) Error() string {
	switch {
	case e.Column != "":
		return fmt.Sprintf("malformed %s data: missing column %q", e.Table, e.Column)
	case e.Row > 0:
		return fmt.Sprintf("malformed %s data at row %d: %v", e.Table, e.Row, e.Err)
	default:
		return fmt.Sprintf("malformed %s data: %v", e.Table, e.Err)
	}
}

func (e *MalformedDataError) Unwrap() error { return e.Err }
