package core

import "strings"

// NotePad holds free-text notes in the order they were written.
// The zero value is ready to use. NotePad is not safe for concurrent use;
// its owning session serializes access.
type NotePad struct {
	notes []string
}

// Add appends the trimmed text and reports whether anything was stored.
// Blank input is ignored rather than treated as an error.
func (p *NotePad) Add(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	p.notes = append(p.notes, text)
	return true
}

// Notes returns a copy of the stored notes.
func (p *NotePad) Notes() []string {
	return append([]string(nil), p.notes...)
}

// Len returns the number of stored notes.
func (p *NotePad) Len() int {
	return len(p.notes)
}
