// Package storage provides a SQLite-backed ledger whose database lives in
// memory and disappears with the session that owns it.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/shopspring/decimal"

	"pdv/internal/core"
	"pdv/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db  *sql.DB
	dsn string
}

var _ ledger.Ledger = (*SQLiteRepository)(nil)

// MemoryDSN names a shared-cache in-memory database private to one session.
func MemoryDSN(sessionID string) string {
	return "file:" + url.PathEscape("pdv-"+sessionID) + "?mode=memory&cache=shared"
}

// NewSQLiteRepository opens the database behind dsn and migrates it.
func NewSQLiteRepository(ctx context.Context, dsn string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// An in-memory database only lives while a connection holds it open.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, dsn: dsn}, nil
}

// NewFactory returns a ledger.Factory creating one in-memory database per session.
func NewFactory() ledger.Factory {
	return func(ctx context.Context, sessionID string) (ledger.Ledger, error) {
		return NewSQLiteRepository(ctx, MemoryDSN(sessionID))
	}
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// AddSale implements ledger.Ledger
func (r *SQLiteRepository) AddSale(ctx context.Context, s core.Sale) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sales (product, price, sale_date) VALUES (?, ?, ?)`,
		s.Product, s.Price.Amount.String(), s.Date.String())
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	id, _ := res.LastInsertId()
	slog.DebugContext(ctx, "Sale saved to SQLite",
		"id", id,
		"product", s.Product,
		"price", s.Price.Fixed(),
		"sale_date", s.Date.String())
	return nil
}

// SalesOn implements ledger.Ledger
func (r *SQLiteRepository) SalesOn(ctx context.Context, date core.Date) ([]core.Sale, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT product, price, sale_date FROM sales WHERE sale_date = ? ORDER BY id`,
		date.String())
	if err != nil {
		return nil, fmt.Errorf("query sales on %s: %w", date, err)
	}
	return scanSales(rows)
}

// SalesBetween implements ledger.Ledger
func (r *SQLiteRepository) SalesBetween(ctx context.Context, start, end core.Date) ([]core.Sale, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT product, price, sale_date FROM sales WHERE sale_date BETWEEN ? AND ? ORDER BY id`,
		start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("query sales between %s and %s: %w", start, end, err)
	}
	return scanSales(rows)
}

func (r *SQLiteRepository) Len(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}
	return n, nil
}

func scanSales(rows *sql.Rows) ([]core.Sale, error) {
	defer rows.Close()

	sales := make([]core.Sale, 0)
	for rows.Next() {
		var product, price, day string
		if err := rows.Scan(&product, &price, &day); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		amount, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parse stored price %q: %w", price, err)
		}
		date, err := core.ParseDate(day)
		if err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", day, err)
		}
		sales = append(sales, core.Sale{Product: product, Price: core.Money{Amount: amount}, Date: date})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return sales, nil
}
