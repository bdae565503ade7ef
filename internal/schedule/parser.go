package schedule

import (
	"github.com/tmuhub/tmu-weekly-bot/internal/textutil"
)

// ParseTable walks the two-column schedule table and emits one Event per
// bulleted entry, in document order. Rows whose date cell yields neither a
// day-of-week nor a date are header or filler rows and are skipped.
// defaultYear fills date tokens that omit the year (use InferYear first).
func ParseTable(rows []TableRow, defaultYear int) []Event {
	var events []Event

	for _, row := range rows {
		dow, date := ResolveHeader(textutil.NFC(row.DayCell), defaultYear)
		if dow == "" && date == "" {
			continue
		}

		work := textutil.NFC(row.WorkCell)
		blocks := SplitBlocks(work)
		if len(blocks) == 0 {
			blocks = [][]string{{work}}
		}

		for _, block := range blocks {
			ev := ExtractEvent(block)
			ev.Date = date
			ev.Dow = dow
			events = append(events, ev)
		}
	}

	return events
}
