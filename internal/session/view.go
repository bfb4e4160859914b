package session

import (
	"context"
	"fmt"
	"strconv"

	"pdv/internal/core"
)

type (
	// View is the read-only model rendered after every action.
	View struct {
		SelectedDay  string
		SelectedDate core.Date
		Days         []DayOption
		DailySales   []SaleRow
		DailyChart   Chart
		Week         core.Period
		WeeklyChart  Chart
		Notes        []NoteRow
	}

	DayOption struct {
		Name     string
		Date     core.Date
		Selected bool
		IsToday  bool
	}

	SaleRow struct {
		Index   int
		Product string
		Price   string
		Date    string
	}

	// Chart is a bar chart of per-product totals, ordered by product name.
	Chart struct {
		Title string
		Bars  []Bar
		Total string
		Empty bool
	}

	// Bar is one product in a chart. Width is a percentage of the largest bar.
	Bar struct {
		Label string
		Value string
		Width int
	}

	NoteRow struct {
		Index int
		Text  string
	}
)

// Line renders a note as "index. text".
func (n NoteRow) Line() string {
	return strconv.Itoa(n.Index) + ". " + n.Text
}

// View derives the page model from the current state.
func (s *Session) View(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return View{}, ErrClosed
	}
	s.refreshLocked()

	today := s.today()
	v := View{
		SelectedDay:  s.selectedDay,
		SelectedDate: s.selectedDate,
		Week:         core.WeekOf(s.selectedDate),
	}

	for i, name := range core.WeekDays {
		d := v.Week.Start.AddDays(i)
		v.Days = append(v.Days, DayOption{
			Name:     name,
			Date:     d,
			Selected: name == s.selectedDay,
			IsToday:  d.Equal(today),
		})
	}

	daily, err := s.ledger.SalesOn(ctx, s.selectedDate)
	if err != nil {
		return View{}, fmt.Errorf("daily sales: %w", err)
	}
	for i, sale := range daily {
		v.DailySales = append(v.DailySales, SaleRow{
			Index:   i + 1,
			Product: sale.Product,
			Price:   sale.Price.String(),
			Date:    sale.Date.String(),
		})
	}
	v.DailyChart = BuildChart("Ventas por Producto", daily)

	weekly, err := s.ledger.SalesBetween(ctx, v.Week.Start, v.Week.End)
	if err != nil {
		return View{}, fmt.Errorf("weekly sales: %w", err)
	}
	v.WeeklyChart = BuildChart("Ventas Semanales", weekly)

	for i, text := range s.notes.Notes() {
		v.Notes = append(v.Notes, NoteRow{Index: i + 1, Text: text})
	}

	return v, nil
}

// BuildChart aggregates sales by product and scales each bar against the
// largest total.
func BuildChart(title string, sales []core.Sale) Chart {
	totals := core.ProductTotals(sales)
	c := Chart{
		Title: title,
		Total: core.Total(sales).String(),
		Empty: len(totals) == 0,
	}

	var largest float64
	for _, pa := range totals {
		if f := pa.Amount.Float(); f > largest {
			largest = f
		}
	}
	for _, pa := range totals {
		width := 0
		if f := pa.Amount.Float(); largest > 0 && f > 0 {
			width = int(f*100/largest + 0.5)
			// keep very small values visible
			if width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		c.Bars = append(c.Bars, Bar{Label: pa.Product, Value: pa.Amount.String(), Width: width})
	}
	return c
}
