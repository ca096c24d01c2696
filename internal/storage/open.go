// Package storage opens the relational store and prepares its schema.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// ErrDriverNotSupported is returned for an unknown driver name.
var ErrDriverNotSupported = errors.New("driver not supported")

// sqliteDriver is go-sqlite3 with LOWER and UPPER folding all of Unicode, not
// only ASCII, so SQL case folding agrees with strings.ToLower.
const sqliteDriver = "sqlite3_unicode"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc("lower", strings.ToLower, true); err != nil {
				return fmt.Errorf("register lower: %w", err)
			}
			if err := conn.RegisterFunc("upper", strings.ToUpper, true); err != nil {
				return fmt.Errorf("register upper: %w", err)
			}
			return nil
		},
	})
}

// Options configure the connection pool. Zero values keep driver defaults.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
}

// Open connects to the store and verifies the connection. The caller owns the
// returned handle and must close it.
func Open(ctx context.Context, driver, dsn string, opts Options) (*bun.DB, error) {
	var sqldb *sql.DB
	var db *bun.DB
	var err error

	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = ":memory:"
		}
		sqldb, err = sql.Open(sqliteDriver, dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// An in-memory database lives in one connection.
		if opts.MaxOpenConns == 0 && isMemoryDSN(dsn) {
			opts.MaxOpenConns = 1
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres:
		sqldb, err = sql.Open(DriverPostgres, dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, fmt.Errorf("%q: %w", driver, ErrDriverNotSupported)
	}

	if opts.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(opts.MaxIdleConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
