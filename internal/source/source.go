// Package source loads order tables from SQL databases into detached
// table snapshots. MySQL/MariaDB, PostgreSQL and SQLite are supported.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/cadence-cli/internal/table"
)

// PoolOptions tunes the connection pool.
type PoolOptions struct {
	MaxOpenConns int
	// Timeout bounds the initial ping.
	Timeout time.Duration
	Logger  *zap.Logger
}

// DefaultPoolOptions mirrors the config defaults.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{MaxOpenConns: 10, Timeout: 30 * time.Second}
}

// DB is an open connection pool bound to one dialect.
type DB struct {
	db      *sql.DB
	dialect string
	log     *zap.Logger
}

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Open builds the DSN from p, opens a pool and pings it.
func Open(ctx context.Context, p Params, opt PoolOptions) (*DB, error) {
	dialect, dsn, err := BuildDSN(p)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(sqlDriverName(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	n := opt.MaxOpenConns
	if n <= 0 {
		n = 10
	}
	db.SetMaxOpenConns(n)
	db.SetMaxIdleConns(n)
	db.SetConnMaxLifetime(30 * time.Minute)

	timeout := opt.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s (%s): %w", dialect, Redact(dsn), err)
	}
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("database connected", zap.String("driver", dialect), zap.String("dsn", Redact(dsn)))
	return &DB{db: db, dialect: dialect, log: log}, nil
}

// Dialect reports the database dialect.
func (d *DB) Dialect() string { return d.dialect }

// Ping checks the pool is still usable.
func (d *DB) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }

// Close releases the pool.
func (d *DB) Close() error { return d.db.Close() }

// ListTables returns the base tables of the connected schema, sorted by name.
func (d *DB) ListTables(ctx context.Context) ([]string, error) {
	var q string
	switch d.dialect {
	case Postgres:
		q = `SELECT table_name FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
			ORDER BY table_name`
	case SQLite:
		q = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	default:
		q = `SHOW TABLES`
	}
	rows, err := d.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()
	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// ValidTableName reports whether name is safe to interpolate into a query.
func ValidTableName(name string) bool { return tableNameRe.MatchString(name) }

func (d *DB) quote(name string) string {
	if d.dialect == MySQL {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

// LoadTable reads the whole table (or the first maxRows rows when maxRows > 0)
// into a snapshot. The returned table holds no reference to the pool.
func (d *DB) LoadTable(ctx context.Context, name string, maxRows int) (*table.Table, error) {
	if !ValidTableName(name) {
		return nil, fmt.Errorf("invalid table name %q", name)
	}
	start := time.Now()
	q := "SELECT * FROM " + d.quote(name)
	if maxRows > 0 {
		q += fmt.Sprintf(" LIMIT %d", maxRows+1)
	}
	rows, err := d.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	t, err := scanTable(name, rows, maxRows)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if t.Truncated {
		var total int
		if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+d.quote(name)).Scan(&total); err == nil {
			t.TotalRows = total
		}
	}
	d.log.Debug("table loaded",
		zap.String("table", name),
		zap.Int("rows", len(t.Rows)),
		zap.Int("columns", len(t.Columns)),
		zap.Duration("elapsed", time.Since(start)))
	return t, nil
}
