package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Quintas0658/olist-ecommerce-project/internal/logger"
)

// Table names used in errors, counts and SQL queries.
const (
	TableSellers    = "sellers"
	TableOrders     = "orders"
	TableOrderItems = "order_items"
	TableReviews    = "order_reviews"
	TableProducts   = "products"
)

// TimestampLayout is the layout of every timestamp column in the exports.
const TimestampLayout = "2006-01-02 15:04:05"

// csvFiles maps each table to its file name in an Olist export directory.
var csvFiles = map[string]string{
	TableSellers:    "olist_sellers_dataset.csv",
	TableOrders:     "olist_orders_dataset.csv",
	TableOrderItems: "olist_order_items_dataset.csv",
	TableReviews:    "olist_order_reviews_dataset.csv",
	TableProducts:   "olist_products_dataset.csv",
}

// LoadCSV reads the five Olist CSV exports from dir.
func LoadCSV(dir string) (*Dataset, error) {
	var t Tables
	var err error

	if t.Sellers, err = readCSV(dir, TableSellers, []string{"seller_id"}, parseSeller); err != nil {
		return nil, err
	}
	if t.Orders, err = readCSV(dir, TableOrders, []string{"order_id", "order_purchase_timestamp"}, parseOrder); err != nil {
		return nil, err
	}
	if t.OrderItems, err = readCSV(dir, TableOrderItems, []string{"order_id", "order_item_id", "product_id", "seller_id", "price", "freight_value"}, parseOrderItem); err != nil {
		return nil, err
	}
	if t.Reviews, err = readCSV(dir, TableReviews, []string{"order_id", "review_score"}, parseReview); err != nil {
		return nil, err
	}
	if t.Products, err = readCSV(dir, TableProducts, []string{"product_id"}, parseProduct); err != nil {
		return nil, err
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return New(t), nil
}

// row gives named access to one CSV record.
type row struct {
	cols   map[string]int
	record []string
}

func (r row) get(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r row) getFloat(name string) (float64, error) {
	v := r.get(name)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", name, err)
	}
	return f, nil
}

func (r row) getInt(name string) (int, error) {
	v := r.get(name)
	if v == "" {
		return 0, nil
	}
	// review scores occasionally arrive as "4.0"
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", name, err)
	}
	return int(f), nil
}

func (r row) getTime(name string) (time.Time, error) {
	return parseTimestamp(r.get(name))
}

func parseTimestamp(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(TimestampLayout, v)
	if err != nil {
		// some exports drop the seconds
		t2, err2 := time.Parse("2006-01-02 15:04", v)
		if err2 != nil {
			return time.Time{}, fmt.Errorf("timestamp %q: %w", v, err)
		}
		return t2, nil
	}
	return t, nil
}

func readCSV[T any](dir, table string, required []string, parse func(row) (T, error)) ([]T, error) {
	path := filepath.Join(dir, csvFiles[table])
	f, err := os.Open(path)
	if err != nil {
		return nil, &MalformedDataError{Table: table, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, &MalformedDataError{Table: table, Err: fmt.Errorf("read header: %w", err)}
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return nil, &MalformedDataError{Table: table, Column: c}
		}
	}

	var out []T
	for n := 1; ; n++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &MalformedDataError{Table: table, Row: n, Err: err}
		}
		v, err := parse(row{cols: cols, record: record})
		if err != nil {
			return nil, &MalformedDataError{Table: table, Row: n, Err: err}
		}
		out = append(out, v)
	}

	logger.Info("Loaded %s: %d records from %s", table, len(out), path)
	return out, nil
}

func parseSeller(r row) (Seller, error) {
	return Seller{
		SellerID:      r.get("seller_id"),
		ZipCodePrefix: r.get("seller_zip_code_prefix"),
		City:          r.get("seller_city"),
		State:         r.get("seller_state"),
	}, nil
}

func parseOrder(r row) (Order, error) {
	o := Order{
		OrderID:    r.get("order_id"),
		CustomerID: r.get("customer_id"),
		Status:     r.get("order_status"),
	}
	var err error
	if o.PurchasedAt, err = r.getTime("order_purchase_timestamp"); err != nil {
		return o, err
	}
	if o.DeliveredCarrierAt, err = r.getTime("order_delivered_carrier_date"); err != nil {
		return o, err
	}
	if o.DeliveredCustomerAt, err = r.getTime("order_delivered_customer_date"); err != nil {
		return o, err
	}
	return o, nil
}

func parseOrderItem(r row) (OrderItem, error) {
	it := OrderItem{
		OrderID:   r.get("order_id"),
		ProductID: r.get("product_id"),
		SellerID:  r.get("seller_id"),
	}
	var err error
	if it.ItemIndex, err = r.getInt("order_item_id"); err != nil {
		return it, err
	}
	if it.Price, err = r.getFloat("price"); err != nil {
		return it, err
	}
	if it.FreightValue, err = r.getFloat("freight_value"); err != nil {
		return it, err
	}
	return it, nil
}

func parseReview(r row) (Review, error) {
	rv := Review{
		ReviewID: r.get("review_id"),
		OrderID:  r.get("order_id"),
	}
	var err error
	rv.Score, err = r.getInt("review_score")
	return rv, err
}

func parseProduct(r row) (Product, error) {
	return Product{
		ProductID: r.get("product_id"),
		Category:  r.get("product_category_name"),
	}, nil
}
