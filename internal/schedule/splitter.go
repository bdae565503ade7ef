package schedule

import (
	"strings"

	"github.com/tmuhub/tmu-weekly-bot/internal/textutil"
)

// SplitBlocks segments a work-description cell into one block of lines per
// bullet-delimited event. Blank lines are dropped. A line starting with a
// bullet marker opens a new block unless it is the first content line; any
// other line (including "TP: ..." annotations) attaches to the open block.
// A cell without bullets becomes a single implicit block.
func SplitBlocks(cellText string) [][]string {
	var blocks [][]string
	var current []string

	for _, line := range strings.Split(cellText, "\n") {
		if textutil.Norm(line) == "" {
			continue
		}
		if isBullet(line) && len(current) > 0 {
			blocks = append(blocks, current)
			current = []string{line}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

func isBullet(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	return strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "•")
}
