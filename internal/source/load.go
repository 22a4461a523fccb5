package source

import (
	"context"
	"fmt"
)

// Source kinds accepted by Load.
const (
	KindCSV    = "csv"
	KindMySQL  = DriverMySQL
	KindSQLite = DriverSQLite
)

// Load reads the dataset from a CSV directory (kind "csv") or a database
// (kind "mysql" or "sqlite", addressed by dsn).
func Load(ctx context.Context, kind, dir, dsn string) (*Dataset, error) {
	switch kind {
	case KindCSV:
		return LoadCSV(dir)
	case KindMySQL, KindSQLite:
		db, err := OpenDB(kind, dsn)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("connect %s: %w", kind, err)
		}
		return LoadSQL(ctx, db)
	default:
		return nil, fmt.Errorf("unknown data source %q", kind)
	}
}
