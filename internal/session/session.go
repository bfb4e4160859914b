// Package session owns the per-operator state of the point of sale: the sale
// ledger, the note pad and the selected day. Every user action is a method
// that mutates the state; View derives the read-only page model separately.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pdv/internal/core"
	"pdv/internal/ledger"
)

// Session is the state of one interactive use of the tool. It is safe for
// concurrent use; requests from the same browser are serialized.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu           sync.Mutex
	ledger       ledger.Ledger
	notes        core.NotePad
	selectedDay  string
	selectedDate core.Date
	today        func() core.Date
	closed       bool
}

// New creates a session whose selected day is today.
func New(id string, l ledger.Ledger, today func() core.Date) *Session {
	t := today()
	return &Session{
		ID:           id,
		CreatedAt:    time.Now(),
		ledger:       l,
		selectedDay:  core.DayName(t),
		selectedDate: t,
		today:        today,
	}
}

// SelectedDay returns the selected day name and the date it resolves to this week.
func (s *Session) SelectedDay() (string, core.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	return s.selectedDay, s.selectedDate
}

// SelectDay changes the selected day of the current week. Unknown names are
// rejected with core.ErrUnknownDay and leave the selection untouched.
func (s *Session) SelectDay(_ context.Context, dayName string) (core.Date, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	date, err := core.ResolveDate(dayName, s.today())
	if err != nil {
		return core.Date{}, err
	}
	s.selectedDay = core.DayName(date)
	s.selectedDate = date
	return date, nil
}

// SubmitSale validates and records a sale on the selected date. On any
// validation error the ledger is left unchanged.
func (s *Session) SubmitSale(ctx context.Context, product, price string) (core.Sale, error) {
	amount, err := core.ParsePrice(price)
	if err != nil {
		return core.Sale{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Sale{}, ErrClosed
	}
	s.refreshLocked()

	sale := core.NewSale(normalizeProduct(product), amount, s.selectedDate)
	if err := sale.Validate(); err != nil {
		return core.Sale{}, err
	}
	if err := s.ledger.AddSale(ctx, sale); err != nil {
		return core.Sale{}, fmt.Errorf("add sale: %w", err)
	}
	return sale, nil
}

// SubmitNote appends a note and reports whether it was stored. Blank text is
// silently ignored.
func (s *Session) SubmitNote(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notes.Add(text)
}

// Notes returns the notes in insertion order.
func (s *Session) Notes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notes.Notes()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the ledger. It is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.ledger.Close()
}

// refreshLocked re-resolves the selected day against today, so a session left
// open past midnight keeps pointing into the current week.
func (s *Session) refreshLocked() {
	if d, err := core.ResolveDate(s.selectedDay, s.today()); err == nil {
		s.selectedDate = d
	}
}

// normalizeProduct trims and collapses inner whitespace of every product
// name, catalogue or typed, and capitalises its first letter when the name is
// all lower case, so "blusa" is recorded as "Blusa".
func normalizeProduct(p string) string {
	p = strings.Join(strings.Fields(p), " ")
	if p == "" || p != strings.ToLower(p) {
		return p
	}
	first := strings.Fields(p)[0]
	rest := strings.TrimPrefix(p, first)
	return cases.Title(language.Spanish).String(first) + rest
}
