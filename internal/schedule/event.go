// Package schedule turns the university's weekly schedule table into
// normalized event records. The source material is loosely structured
// Vietnamese free text, so every extractor here is best-effort: a missing
// marker yields an absent field, never an error.
package schedule

import (
	"strings"
)

// Event is one normalized schedule entry. Fields other than Title and Raw are
// empty when the source text carries no usable signal for them. Records are
// immutable once emitted by the parser; ingestion only assigns IDs and stores
// them.
type Event struct {
	ID           int    `json:"id"`
	Date         string `json:"date,omitempty"` // dd/mm/yyyy
	Dow          string `json:"dow,omitempty"`  // canonical Vietnamese day label
	Start        string `json:"start,omitempty"`
	End          string `json:"end,omitempty"`
	Location     string `json:"location,omitempty"`
	Participants string `json:"participants,omitempty"`
	Title        string `json:"title"`
	Raw          string `json:"raw"`
}

// TableRow is one (date cell, work cell) pair from the schedule table.
type TableRow struct {
	DayCell  string `json:"day"`
	WorkCell string `json:"work"`
}

// IndexText renders the record as labeled lines for embedding and lexical
// indexing. Mirrors the rendering used at ingestion so search and storage
// stay aligned.
func (e *Event) IndexText() string {
	var b strings.Builder
	add := func(label, value string) {
		if value == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
	}
	add("date", e.Date)
	add("dow", e.Dow)
	add("start", e.Start)
	add("end", e.End)
	add("location", e.Location)
	add("participants", e.Participants)
	add("title", e.Title)
	add("raw", e.Raw)
	return b.String()
}
