package session

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pdv/internal/core"
)

func TestViewSeparatesDailyAndWeekly(t *testing.T) {
	ctx := context.Background()
	s := newTestSession()

	mustSell := func(day, product, price string) {
		t.Helper()
		if _, err := s.SelectDay(ctx, day); err != nil {
			t.Fatalf("SelectDay: %v", err)
		}
		if _, err := s.SubmitSale(ctx, product, price); err != nil {
			t.Fatalf("SubmitSale: %v", err)
		}
	}
	mustSell("Lunes", "Blusa", "20")
	mustSell("Miércoles", "Falda", "10")
	mustSell("Miércoles", "Falda", "5")
	mustSell("Miércoles", "Blusa", "20")
	s.SubmitNote("Restock blue skirts")
	s.SubmitNote("Llamar proveedor")

	v, err := s.View(ctx)
	if err != nil {
		t.Fatalf("View: %v", err)
	}

	if v.SelectedDay != "Miércoles" || !v.SelectedDate.Equal(wednesday) {
		t.Fatalf("selected %s %s", v.SelectedDay, v.SelectedDate)
	}
	if !v.Week.Start.Equal(wednesday.AddDays(-2)) || !v.Week.End.Equal(wednesday.AddDays(4)) {
		t.Fatalf("week = %v", v.Week)
	}

	wantRows := []SaleRow{
		{Index: 1, Product: "Falda", Price: "$10.00", Date: "2025-03-05"},
		{Index: 2, Product: "Falda", Price: "$5.00", Date: "2025-03-05"},
		{Index: 3, Product: "Blusa", Price: "$20.00", Date: "2025-03-05"},
	}
	if diff := cmp.Diff(wantRows, v.DailySales); diff != "" {
		t.Fatalf("daily rows mismatch (-want +got):\n%s", diff)
	}

	wantDaily := []Bar{
		{Label: "Blusa", Value: "$20.00", Width: 100},
		{Label: "Falda", Value: "$15.00", Width: 75},
	}
	if diff := cmp.Diff(wantDaily, v.DailyChart.Bars); diff != "" {
		t.Fatalf("daily chart mismatch (-want +got):\n%s", diff)
	}
	if v.DailyChart.Total != "$35.00" {
		t.Fatalf("daily total = %s", v.DailyChart.Total)
	}

	wantWeekly := []Bar{
		{Label: "Blusa", Value: "$40.00", Width: 100},
		{Label: "Falda", Value: "$15.00", Width: 38},
	}
	if diff := cmp.Diff(wantWeekly, v.WeeklyChart.Bars); diff != "" {
		t.Fatalf("weekly chart mismatch (-want +got):\n%s", diff)
	}

	var lines []string
	for _, n := range v.Notes {
		lines = append(lines, n.Line())
	}
	if diff := cmp.Diff([]string{"1. Restock blue skirts", "2. Llamar proveedor"}, lines); diff != "" {
		t.Fatalf("notes mismatch (-want +got):\n%s", diff)
	}

	if len(v.Days) != 7 || !v.Days[2].Selected || !v.Days[2].IsToday || v.Days[0].Selected {
		t.Fatalf("day options wrong: %+v", v.Days)
	}
}

func TestViewEmptyDay(t *testing.T) {
	v, err := newTestSession().View(context.Background())
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(v.DailySales) != 0 || !v.DailyChart.Empty || !v.WeeklyChart.Empty {
		t.Fatalf("expected empty view, got %+v", v)
	}
	if v.DailyChart.Total != "$0.00" {
		t.Fatalf("total = %s", v.DailyChart.Total)
	}
}

func TestBuildChartKeepsTinyBarsVisible(t *testing.T) {
	d := core.NewDate(2025, 3, 5)
	c := BuildChart("x", []core.Sale{
		core.NewSale("Big", core.NewMoney(1000), d),
		core.NewSale("Tiny", core.NewMoney(1), d),
	})
	if c.Bars[1].Width != 2 {
		t.Fatalf("tiny bar width = %d", c.Bars[1].Width)
	}
}
