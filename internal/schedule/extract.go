package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tmuhub/tmu-weekly-bot/internal/textutil"
)

var (
	// timeRE matches hour tokens written with ':' or 'h' so plain numbers and
	// date fragments (03/4) never read as times. Minute digits are optional.
	timeRE = regexp.MustCompile(`\b(\d{1,2})(?::|[hH])\s?(\d{2})?\b`)

	// locationRE captures the place name after a "tại"/"địa điểm" marker up to
	// sentence punctuation or end of text. A dot terminates only before
	// whitespace so room codes like "P.A1" stay intact.
	locationRE = regexp.MustCompile(`(?i)(tại|địa điểm)[:\-]?\s*(?P<loc>[^:\n]+?)\s*(?:[;:]|\.(?:\s|$)|$)`)

	participantsRE = regexp.MustCompile(`(?i)^\s*(TP|Thành phần)\s*[:\-]\s*(.+)$`)
	allDayRE       = regexp.MustCompile(`(?i)cả\s*ngày`)
	onlineRE       = regexp.MustCompile(`(?i)(trực tuyến|online)`)

	trailingPunctRE = regexp.MustCompile(`[,\-–—]\s*$`)

	bulletPrefixRE  = regexp.MustCompile(`^[*•]\s*`)
	timePrefixRE    = regexp.MustCompile(`^\d{1,2}(?:(?::|[hH])\s?\d{0,2})?\s*(?:-|–|—)?\s*`)
	trailingTPRE    = regexp.MustCompile(`(?i)\s*(TP|Thành phần)\s*[:\-].*$`)
	softwarePhraseRE = regexp.MustCompile(`(?i)qua\s+phần\s+mềm\s*:?\s*`)
)

// ExtractEvent builds an Event from one block of lines. Date and Dow are left
// for the caller, which knows the row header. Every extraction step is
// tolerant: missing markers leave the field empty.
func ExtractEvent(lines []string) Event {
	full := textutil.Norm(strings.Join(lines, " "))

	ev := Event{Raw: full}

	// All-day events carry no clock times by definition.
	if !allDayRE.MatchString(full) {
		ev.Start, ev.End = extractTimes(full)
	}

	titleSource := full
	if loc, rest, ok := extractLocation(full); ok {
		ev.Location = loc
		titleSource = rest
	} else if onlineRE.MatchString(full) {
		ev.Location, titleSource = synthesizeOnlineLocation(full)
	}

	for _, line := range lines {
		if m := participantsRE.FindStringSubmatch(line); m != nil {
			ev.Participants = textutil.Norm(m[2])
			break
		}
	}

	ev.Title = cleanTitle(titleSource)
	if ev.Title == "" {
		ev.Title = cleanTitle(full)
	}

	if ev.Location != "" {
		ev.Location = textutil.TitleCaseLocation(ev.Location)
	}

	return ev
}

// extractTimes returns the first and second time tokens as HH:MM, swapped if
// needed so start never exceeds end within the same day.
func extractTimes(full string) (start, end string) {
	matches := timeRE.FindAllStringSubmatch(full, -1)
	if len(matches) == 0 {
		return "", ""
	}
	start = formatClock(matches[0])
	if len(matches) >= 2 {
		end = formatClock(matches[1])
	}
	if end != "" && start > end {
		start, end = end, start
	}
	return start, end
}

func formatClock(m []string) string {
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// extractLocation finds the "tại|địa điểm" marker. On a hit it returns the
// cleaned location and the text after the match as the new title source.
func extractLocation(full string) (loc, rest string, ok bool) {
	m := locationRE.FindStringSubmatchIndex(full)
	if m == nil {
		return "", "", false
	}
	raw := string(locationRE.ExpandString(nil, "${loc}", full, m))
	loc = trailingPunctRE.ReplaceAllString(textutil.Norm(raw), "")
	rest = textutil.Norm(full[m[1]:])
	return loc, rest, true
}

// synthesizeOnlineLocation handles events with an online phrase but no
// explicit place marker. The platform name, when recognized, joins the
// synthesized location; both phrases are stripped from the title source.
func synthesizeOnlineLocation(full string) (loc, titleSource string) {
	loc = "Trực tuyến"
	if m := textutil.PlatformPattern.FindString(full); m != "" {
		name, _ := textutil.CanonicalPlatform(m)
		loc = "Trực tuyến qua " + name
	}
	titleSource = textutil.Norm(onlineRE.ReplaceAllString(full, ""))
	titleSource = textutil.Norm(textutil.PlatformPattern.ReplaceAllString(titleSource, ""))
	return loc, titleSource
}

// cleanTitle strips the bullet marker, a leading time-range prefix, any
// trailing participants clause, and the "qua phần mềm" connective.
func cleanTitle(text string) string {
	t := strings.TrimSpace(bulletPrefixRE.ReplaceAllString(text, ""))
	t = timePrefixRE.ReplaceAllString(t, "")
	t = strings.TrimSpace(trailingTPRE.ReplaceAllString(t, ""))
	t = strings.TrimSpace(softwarePhraseRE.ReplaceAllString(t, ""))
	return textutil.Norm(t)
}
