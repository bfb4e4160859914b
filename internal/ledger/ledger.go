// Package ledger defines the append-only store of sales owned by a session.
package ledger

import (
	"context"

	"pdv/internal/core"
)

// Ledger is an append-only, insertion-ordered sequence of sales.
// Implementations do not validate; callers reject bad input first.
type Ledger interface {
	// AddSale appends a sale.
	AddSale(ctx context.Context, s core.Sale) error

	// SalesOn returns every sale recorded for exactly date, in insertion order.
	SalesOn(ctx context.Context, date core.Date) ([]core.Sale, error)

	// SalesBetween returns every sale whose date lies in [start, end], in insertion order.
	SalesBetween(ctx context.Context, start, end core.Date) ([]core.Sale, error)

	// Len returns the number of recorded sales.
	Len(ctx context.Context) (int, error)

	// Close releases the ledger. Further calls are undefined.
	Close() error
}

// Backend names accepted by configuration.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Factory creates a fresh, empty ledger for a new session.
type Factory func(ctx context.Context, sessionID string) (Ledger, error)
