package memory

import (
	"context"
	"sync"

	"pdv/internal/core"
	"pdv/internal/ledger"
)

// Store keeps sales in a slice for the lifetime of its session.
type Store struct {
	mu    sync.Mutex
	items []core.Sale
}

var _ ledger.Ledger = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// NewFactory returns a ledger.Factory producing empty memory stores.
func NewFactory() ledger.Factory {
	return func(context.Context, string) (ledger.Ledger, error) {
		return New(), nil
	}
}

// AddSale appends the sale.
func (s *Store) AddSale(_ context.Context, sale core.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, sale)
	return nil
}

// SalesOn returns the sales dated exactly date.
func (s *Store) SalesOn(_ context.Context, date core.Date) ([]core.Sale, error) {
	return s.filter(func(sale core.Sale) bool { return sale.Date.Equal(date) }), nil
}

// SalesBetween returns the sales dated within [start, end].
func (s *Store) SalesBetween(_ context.Context, start, end core.Date) ([]core.Sale, error) {
	p := core.Period{Start: start, End: end}
	return s.filter(func(sale core.Sale) bool { return p.Contains(sale.Date) }), nil
}

func (s *Store) Len(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items), nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return nil
}

func (s *Store) filter(keep func(core.Sale) bool) []core.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Sale, 0)
	for _, sale := range s.items {
		if keep(sale) {
			out = append(out, sale)
		}
	}
	return out
}
