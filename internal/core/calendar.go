package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// WeekDays lists the selectable days, Monday first. The index of a name is
// its weekday number (Monday=0 .. Sunday=6).
var WeekDays = []string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado", "Domingo"}

// Period is an inclusive range of calendar days.
type Period struct {
	Start, End Date
}

// Contains reports whether d falls within the period, bounds included.
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Weekday returns the Monday-based index of d (Monday=0 .. Sunday=6).
func Weekday(d Date) int {
	return (int(d.Time.Weekday()) + 6) % 7
}

// DayName returns the name of d's weekday as listed in WeekDays.
func DayName(d Date) string {
	return WeekDays[Weekday(d)]
}

// DayIndex returns the Monday-based index of a day name.
//
// Exact names are matched first; otherwise the lookup ignores case and
// accents, so "miercoles" resolves to "Miércoles".
func DayIndex(name string) (int, error) {
	name = strings.TrimSpace(name)
	for i, d := range WeekDays {
		if d == name {
			return i, nil
		}
	}
	key := foldDayName(name)
	if key == "" {
		return 0, ErrUnknownDay
	}
	for i, d := range WeekDays {
		if foldDayName(d) == key {
			return i, nil
		}
	}
	return 0, ErrUnknownDay
}

// ResolveDate maps a day of the current week to a concrete date:
// today + (index(day) - weekday(today)). Selecting today's weekday returns
// today unchanged.
func ResolveDate(dayName string, today Date) (Date, error) {
	idx, err := DayIndex(dayName)
	if err != nil {
		return Date{}, err
	}
	return today.AddDays(idx - Weekday(today)), nil
}

// WeekOf returns the Monday–Sunday window containing d.
func WeekOf(d Date) Period {
	wd := Weekday(d)
	return Period{Start: d.AddDays(-wd), End: d.AddDays(6 - wd)}
}

func foldDayName(s string) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(strings.TrimSpace(stripped))
}
