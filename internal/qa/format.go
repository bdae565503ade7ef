package qa

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tmuhub/tmu-weekly-bot/internal/schedule"
)

var (
	titleTPRE       = regexp.MustCompile(`(?i)\bTP[:\-]?\s*`)
	participantTPRE = regexp.MustCompile(`(?i)^\s*TP[:\-]?\s*`)
)

// formatEventLines renders one markdown block per event, sorted by start
// time ascending with unspecified-time events last, then by id.
func formatEventLines(events []schedule.Event) []string {
	sorted := make([]schedule.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := sorted[i].Start, sorted[j].Start
		if si == "" {
			si = "99:99"
		}
		if sj == "" {
			sj = "99:99"
		}
		if si != sj {
			return si < sj
		}
		return sorted[i].ID < sorted[j].ID
	})

	blocks := make([]string, 0, len(sorted))
	for _, ev := range sorted {
		start := strings.TrimSpace(ev.Start)
		if start == "" {
			start = "Cả ngày"
		}
		loc := strings.TrimSpace(ev.Location)
		title := titleTPRE.ReplaceAllString(strings.TrimSpace(ev.Title), "")
		part := strings.TrimSpace(participantTPRE.ReplaceAllString(strings.TrimSpace(ev.Participants), ""))

		var lines []string
		if loc != "" && !strings.Contains(strings.ToLower(title), strings.ToLower(loc)) {
			lines = append(lines, fmt.Sprintf("- **%s** tại **%s**: %s", start, loc, title))
		} else {
			lines = append(lines, fmt.Sprintf("- **%s**: %s", start, title))
		}
		if part != "" {
			lines = append(lines, fmt.Sprintf("  - **Thành phần:** %s", part))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return blocks
}

// FormatEventsFull renders all events of one day with an intro naming the
// date and day-of-week.
func FormatEventsFull(events []schedule.Event) string {
	if len(events) == 0 {
		return msgNotFoundGeneric
	}
	intro := fmt.Sprintf("Chào bạn! Mình vừa tra lịch và thấy các hoạt động vào **%s, %s** như sau:\n",
		events[0].Date, events[0].Dow)
	body := strings.Join(formatEventLines(events), "\n\n")
	outro := "\n\nBạn muốn mình lọc theo đơn vị/khung giờ khác, hoặc kiểm tra ngày khác không?"
	return intro + body + outro
}

// FormatEventsTimeInDay renders events of one day that matched a time window.
func FormatEventsTimeInDay(events []schedule.Event, dateStr, dow, tFrom, tTo string) string {
	pretty := prettyWindow(tFrom, tTo)
	day := dateStr
	if dow != "" {
		day += ", " + dow
	}
	if len(events) == 0 {
		return fmt.Sprintf("Mình đã kiểm tra **%s** nhưng không thấy hoạt động đúng vào khung giờ %s.", day, pretty)
	}
	intro := fmt.Sprintf("Đây là các hoạt động **%s** trùng với %s:\n", day, pretty)
	body := strings.Join(formatEventLines(events), "\n\n")
	outro := "\n\nCần mình xem các giờ lân cận không?"
	return intro + body + outro
}

// DateGroup holds one day's time-filtered events for the cross-week summary.
type DateGroup struct {
	Date   string
	Events []schedule.Event
}

// FormatEventsByTimeAcrossWeek renders time-window matches grouped by date,
// dates sorted chronologically (year, month, day).
func FormatEventsByTimeAcrossWeek(groups []DateGroup, tFrom, tTo string) string {
	pretty := prettyWindow(tFrom, tTo)
	if len(groups) == 0 {
		return fmt.Sprintf("Mình đã rà cả tuần nhưng không thấy hoạt động nào đúng vào %s.", pretty)
	}

	sorted := make([]DateGroup, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return dateSortKey(sorted[i].Date) < dateSortKey(sorted[j].Date)
	})

	parts := []string{fmt.Sprintf("Mình vừa lọc các hoạt động trong tuần theo khung giờ %s:\n", pretty)}
	for _, g := range sorted {
		dow := ""
		if len(g.Events) > 0 {
			dow = g.Events[0].Dow
		}
		parts = append(parts, fmt.Sprintf("\n**%s, %s:**", g.Date, dow))
		parts = append(parts, strings.Join(formatEventLines(g.Events), "\n\n"))
	}
	parts = append(parts, "\n\nBạn muốn mình xem ngày/đơn vị khác không?")
	return strings.Join(parts, "\n")
}

func prettyWindow(tFrom, tTo string) string {
	if tTo == "" {
		return fmt.Sprintf("**%s**", tFrom)
	}
	return fmt.Sprintf("**%s–%s**", tFrom, tTo)
}

// dateSortKey turns "dd/mm/yyyy" into a sortable yyyymmdd integer.
// Malformed dates sort last.
func dateSortKey(date string) int {
	parts := strings.Split(date, "/")
	if len(parts) != 3 {
		return 1 << 30
	}
	d, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	y, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return 1 << 30
	}
	return y*10000 + m*100 + d
}
