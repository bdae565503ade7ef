package qa

import "github.com/tmuhub/tmu-weekly-bot/internal/schedule"

// DefaultToleranceMin is how far (in minutes) a record's start may sit from
// a single target time and still match.
const DefaultToleranceMin = 5

// FilterByTime narrows events to those matching a time window.
//
// Single target time (to == ""): a record matches if its start is within the
// tolerance of from, or from falls within [start, end].
//
// Range [from, to]: a record with no end matches if its start falls within
// the range; a record with an end matches if [start, end] overlaps the range.
//
// Records without a start time never match.
func FilterByTime(events []schedule.Event, from, to string, toleranceMin int) []schedule.Event {
	tf, ok := clockToMinutes(from)
	if !ok {
		return nil
	}

	tt, haveTo := 0, false
	if to != "" {
		if tt, haveTo = clockToMinutes(to); !haveTo {
			return nil
		}
	}

	var out []schedule.Event
	for _, ev := range events {
		if ev.Start == "" {
			continue
		}
		si, ok := clockToMinutes(ev.Start)
		if !ok {
			continue
		}
		ei := si
		hasEnd := ev.End != ""
		if hasEnd {
			if ei, ok = clockToMinutes(ev.End); !ok {
				continue
			}
		}

		if !haveTo {
			if abs(si-tf) <= toleranceMin || (si <= tf && tf <= ei) {
				out = append(out, ev)
			}
			continue
		}

		if !hasEnd {
			if tf <= si && si <= tt {
				out = append(out, ev)
			}
			continue
		}

		if max(si, tf) <= min(ei, tt) {
			out = append(out, ev)
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
