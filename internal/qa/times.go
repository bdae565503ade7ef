package qa

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// timeTokenRE matches time-of-day tokens like "8h00", "14h", "09:30".
// The hour/minute separator is mandatory so bare numbers (dates, counts)
// never read as times.
var timeTokenRE = regexp.MustCompile(`\b(\d{1,2})(?::|[hH])\s?(\d{2})?\b`)

// dowGuardRE detects a day-of-week prefix directly before a candidate time
// token, so "Thứ 5" is never misread as 05:00.
var dowGuardRE = regexp.MustCompile(`thứ\s*$`)

// ParseTimes extracts a time window from a question. Zero time tokens yield
// ("", ""); one yields (from, ""); two or more are sorted ascending and the
// first and last become the window.
func ParseTimes(q string) (from, to string) {
	var matches []string
	for _, loc := range timeTokenRE.FindAllStringSubmatchIndex(q, -1) {
		if dowPrecedes(q, loc[0]) {
			continue
		}

		hour, err := strconv.Atoi(q[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		minute := 0
		if loc[4] >= 0 {
			minute, err = strconv.Atoi(q[loc[4]:loc[5]])
			if err != nil {
				continue
			}
		}
		matches = append(matches, fmt.Sprintf("%02d:%02d", hour, minute))
	}

	switch len(matches) {
	case 0:
		return "", ""
	case 1:
		return matches[0], ""
	default:
		sort.Strings(matches)
		return matches[0], matches[len(matches)-1]
	}
}

// dowPrecedes reports whether the 6 characters before byte offset pos end in
// "thứ".
func dowPrecedes(q string, pos int) bool {
	prev := []rune(q[:pos])
	if len(prev) > 6 {
		prev = prev[len(prev)-6:]
	}
	return dowGuardRE.MatchString(strings.ToLower(string(prev)))
}

// clockToMinutes converts "HH:MM" to minutes since midnight.
func clockToMinutes(t string) (int, bool) {
	h, m, ok := strings.Cut(t, ":")
	if !ok {
		return 0, false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, false
	}
	minute, err := strconv.Atoi(strings.TrimSpace(m))
	if err != nil {
		return 0, false
	}
	return hour*60 + minute, true
}
