// Package ledgertest holds behaviour checks shared by every ledger backend.
package ledgertest

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"pdv/internal/core"
	"pdv/internal/ledger"
)

// Run exercises a ledger implementation. newLedger must return an empty ledger.
func Run(t *testing.T, newLedger func(t *testing.T) ledger.Ledger) {
	t.Helper()

	mon := core.NewDate(2025, time.March, 3)
	wed := mon.AddDays(2)
	sun := mon.AddDays(6)

	t.Run("add then filter by date", func(t *testing.T) {
		ctx := context.Background()
		l := newLedger(t)

		before, err := l.SalesOn(ctx, wed)
		if err != nil {
			t.Fatalf("SalesOn: %v", err)
		}
		if len(before) != 0 {
			t.Fatalf("expected empty ledger, got %d", len(before))
		}

		sale := core.NewSale("Falda", core.MustParsePrice("10.50"), wed)
		if err := l.AddSale(ctx, sale); err != nil {
			t.Fatalf("AddSale: %v", err)
		}
		after, err := l.SalesOn(ctx, wed)
		if err != nil {
			t.Fatalf("SalesOn: %v", err)
		}
		if len(after) != len(before)+1 {
			t.Fatalf("expected %d sales, got %d", len(before)+1, len(after))
		}
		got := after[len(after)-1]
		if got.Product != "Falda" || !got.Price.Equal(sale.Price) || !got.Date.Equal(wed) {
			t.Fatalf("stored sale mismatch: %+v", got)
		}
	})

	t.Run("filter by date excludes other days", func(t *testing.T) {
		ctx := context.Background()
		l := newLedger(t)
		mustAdd(t, l, core.NewSale("Falda", core.NewMoney(1), mon))
		mustAdd(t, l, core.NewSale("Blusa", core.NewMoney(2), wed))
		mustAdd(t, l, core.NewSale("Camisa", core.NewMoney(3), wed))
		mustAdd(t, l, core.NewSale("Vestido", core.NewMoney(4), sun))

		got, err := l.SalesOn(ctx, wed)
		if err != nil {
			t.Fatalf("SalesOn: %v", err)
		}
		if diff := cmp.Diff([]string{"Blusa", "Camisa"}, products(got)); diff != "" {
			t.Fatalf("SalesOn mismatch (-want +got):\n%s", diff)
		}
		for _, s := range got {
			if !s.Date.Equal(wed) {
				t.Fatalf("SalesOn returned %s", s.Date)
			}
		}
	})

	t.Run("filter by range is inclusive and ordered", func(t *testing.T) {
		ctx := context.Background()
		l := newLedger(t)
		mustAdd(t, l, core.NewSale("before", core.NewMoney(1), mon.AddDays(-1)))
		mustAdd(t, l, core.NewSale("sun", core.NewMoney(1), sun))
		mustAdd(t, l, core.NewSale("mon", core.NewMoney(1), mon))
		mustAdd(t, l, core.NewSale("wed", core.NewMoney(1), wed))
		mustAdd(t, l, core.NewSale("after", core.NewMoney(1), sun.AddDays(1)))

		got, err := l.SalesBetween(ctx, mon, sun)
		if err != nil {
			t.Fatalf("SalesBetween: %v", err)
		}
		if diff := cmp.Diff([]string{"sun", "mon", "wed"}, products(got)); diff != "" {
			t.Fatalf("SalesBetween mismatch (-want +got):\n%s", diff)
		}

		n, err := l.Len(ctx)
		if err != nil {
			t.Fatalf("Len: %v", err)
		}
		if n != 5 {
			t.Fatalf("Len = %d, want 5", n)
		}
	})

	t.Run("prices keep cents", func(t *testing.T) {
		ctx := context.Background()
		l := newLedger(t)
		mustAdd(t, l, core.NewSale("Falda", core.MustParsePrice("0.10"), wed))
		mustAdd(t, l, core.NewSale("Falda", core.MustParsePrice("0.20"), wed))

		got, err := l.SalesOn(ctx, wed)
		if err != nil {
			t.Fatalf("SalesOn: %v", err)
		}
		if total := core.Total(got).Fixed(); total != "0.30" {
			t.Fatalf("total = %s, want 0.30", total)
		}
	})
}

func mustAdd(t *testing.T, l ledger.Ledger, s core.Sale) {
	t.Helper()
	if err := l.AddSale(context.Background(), s); err != nil {
		t.Fatalf("AddSale(%s): %v", s.Product, err)
	}
}

func products(sales []core.Sale) []string {
	out := make([]string, 0, len(sales))
	for _, s := range sales {
		out = append(out, s.Product)
	}
	return out
}
