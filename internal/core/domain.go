package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const dateLayout = "2006-01-02"

// maxProductLen bounds product names in characters, matching the form's maxlength.
const maxProductLen = 100

type (
	// Date is a calendar day. The wrapped time is always midnight UTC.
	Date struct {
		time.Time
	}

	// Sale is one recorded sale. Sales are never edited once appended.
	Sale struct {
		Product string
		Price   Money
		Date    Date
	}
)

var (
	ErrInvalidDate    = errors.New("invalid date")
	ErrEmptyProduct   = errors.New("empty product")
	ErrProductTooLong = errors.New("product name too long")
	ErrInvalidPrice   = errors.New("invalid price")
	ErrUnknownDay     = errors.New("unknown day of week")
)

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Equal reports whether both dates name the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewSale builds a sale with a trimmed product name. It does not validate.
func NewSale(product string, price Money, date Date) Sale {
	return Sale{Product: strings.TrimSpace(product), Price: price, Date: date}
}

func (s Sale) Validate() error {
	if err := s.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(s.Product) == "" {
		return ErrEmptyProduct
	}
	if utf8.RuneCountInString(s.Product) > maxProductLen {
		return fmt.Errorf("%w (max %d characters)", ErrProductTooLong, maxProductLen)
	}
	if err := s.Price.Validate(); err != nil {
		return err
	}
	return nil
}
