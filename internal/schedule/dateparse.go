package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/tmuhub/tmu-weekly-bot/internal/textutil"
)

var (
	// dowRE matches Vietnamese day-of-week tokens, numeric or spelled.
	dowRE = regexp.MustCompile(`(?i)(thứ\s*[2-7]|thứ\s*(?:hai|ba|tư|năm|sáu|bảy)|chủ\s*nhật|\bCN\b)`)

	// dateRE matches D/M, D-M, D/M/YY and D/M/YYYY tokens.
	dateRE = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2,4}))?`)
)

// ResolveHeader extracts the day-of-week label and the calendar date from a
// date-column cell. Either result may be empty. A date token without a year
// uses defaultYear, falling back to the current system year. Tokens that do
// not form a real calendar date (e.g. 31/11) resolve to an empty date.
func ResolveHeader(cell string, defaultYear int) (dow, date string) {
	t := textutil.Norm(cell)

	if m := dowRE.FindString(t); m != "" {
		dow = textutil.Norm(m)
	}

	m := dateRE.FindStringSubmatch(t)
	if m == nil {
		return dow, ""
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])

	year := defaultYear
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
	}
	if year == 0 {
		year = time.Now().Year()
	}

	return dow, formatValidDate(year, month, day)
}

// formatValidDate renders dd/mm/yyyy when the triple is a real calendar date,
// empty string otherwise. time.Date normalizes overflow (32/01 becomes 01/02),
// so a round-trip comparison detects invalid input.
func formatValidDate(year, month, day int) string {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return ""
	}
	return fmt.Sprintf("%02d/%02d/%04d", day, month, year)
}

// InferYear scans document texts for the first date token carrying an
// explicit year and returns it. Returns 0 when no dated text is found;
// callers then fall back to the current year.
func InferYear(texts []string) int {
	for _, t := range texts {
		for _, m := range dateRE.FindAllStringSubmatch(t, -1) {
			if m[3] == "" {
				continue
			}
			year, _ := strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
			return year
		}
	}
	return 0
}
