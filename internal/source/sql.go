package source

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/Quintas0658/olist-ecommerce-project/internal/logger"
)

// Supported database drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// OpenDB opens a database handle for driver. MySQL DSNs may be given as
// mysql:// or mariadb:// URLs.
func OpenDB(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverMySQL:
		converted, err := toMySQLDSN(dsn)
		if err != nil {
			return nil, err
		}
		dsn = converted
	case DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "mariadb://") && !strings.HasPrefix(dsn, "mysql://") {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	var user, pass string
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	db := strings.TrimPrefix(u.Path, "/")
	if user == "" || u.Host == "" || db == "" {
		return "", fmt.Errorf("incomplete dsn: user, host and database are required")
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?loc=UTC&interpolateParams=true", user, pass, u.Host, db), nil
}

// Table queries. Timestamps are selected as text so both drivers scan them the same way.
const (
	querySellers = `SELECT seller_id, COALESCE(seller_zip_code_prefix, ''), COALESCE(seller_city, ''), COALESCE(seller_state, '')
		FROM sellers`
	queryOrders = `SELECT order_id, COALESCE(customer_id, ''), COALESCE(order_status, ''),
		COALESCE(CAST(order_purchase_timestamp AS CHAR), ''),
		COALESCE(CAST(order_delivered_carrier_date AS CHAR), ''),
		COALESCE(CAST(order_delivered_customer_date AS CHAR), '')
		FROM orders`
	queryOrderItems = `SELECT order_id, order_item_id, product_id, seller_id, price, freight_value
		FROM order_items`
	queryReviews = `SELECT COALESCE(review_id, ''), order_id, review_score
		FROM order_reviews`
	queryProducts = `SELECT product_id, COALESCE(product_category_name, '')
		FROM products`
)

// LoadSQL reads the five tables from db.
func LoadSQL(ctx context.Context, db *sql.DB) (*Dataset, error) {
	var t Tables
	var err error

	if t.Sellers, err = query(ctx, db, TableSellers, querySellers, func(rows *sql.Rows) (Seller, error) {
		var s Seller
		err := rows.Scan(&s.SellerID, &s.ZipCodePrefix, &s.City, &s.State)
		return s, err
	}); err != nil {
		return nil, err
	}

	if t.Orders, err = query(ctx, db, TableOrders, queryOrders, func(rows *sql.Rows) (Order, error) {
		var o Order
		var purchased, carrier, customer string
		if err := rows.Scan(&o.OrderID, &o.CustomerID, &o.Status, &purchased, &carrier, &customer); err != nil {
			return o, err
		}
		var err error
		if o.PurchasedAt, err = parseTimestamp(purchased); err != nil {
			return o, err
		}
		if o.DeliveredCarrierAt, err = parseTimestamp(carrier); err != nil {
			return o, err
		}
		o.DeliveredCustomerAt, err = parseTimestamp(customer)
		return o, err
	}); err != nil {
		return nil, err
	}

	if t.OrderItems, err = query(ctx, db, TableOrderItems, queryOrderItems, func(rows *sql.Rows) (OrderItem, error) {
		var it OrderItem
		err := rows.Scan(&it.OrderID, &it.ItemIndex, &it.ProductID, &it.SellerID, &it.Price, &it.FreightValue)
		return it, err
	}); err != nil {
		return nil, err
	}

	if t.Reviews, err = query(ctx, db, TableReviews, queryReviews, func(rows *sql.Rows) (Review, error) {
		var r Review
		err := rows.Scan(&r.ReviewID, &r.OrderID, &r.Score)
		return r, err
	}); err != nil {
		return nil, err
	}

	if t.Products, err = query(ctx, db, TableProducts, queryProducts, func(rows *sql.Rows) (Product, error) {
		var p Product
		err := rows.Scan(&p.ProductID, &p.Category)
		return p, err
	}); err != nil {
		return nil, err
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return New(t), nil
}

func query[T any](ctx context.Context, db *sql.DB, table, q string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, &MalformedDataError{Table: table, Err: err}
	}
	defer rows.Close()

	var out []T
	for n := 1; rows.Next(); n++ {
		v, err := scan(rows)
		if err != nil {
			return nil, &MalformedDataError{Table: table, Row: n, Err: err}
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, &MalformedDataError{Table: table, Err: err}
	}

	logger.Info("Loaded %s: %d records", table, len(out))
	return out, nil
}
