package docreader

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "github.com/tmuhub/tmu-weekly-bot/internal/errors"
	"github.com/tmuhub/tmu-weekly-bot/internal/schedule"
)

// ReadJSONL reads table rows from a JSONL file where each line is one
// {"day": ..., "work": ...} object. Blank lines are skipped; a malformed
// line aborts with its line number.
func ReadJSONL(path string) ([]schedule.TableRow, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open rows file: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, texts, err := parseJSONL(f)
	if err != nil {
		return nil, nil, apperrors.NewIngestError(path, err)
	}
	if len(rows) == 0 {
		return nil, texts, apperrors.NewIngestError(path, apperrors.ErrNoEvents)
	}
	return rows, texts, nil
}

func parseJSONL(r io.Reader) ([]schedule.TableRow, []string, error) {
	var rows []schedule.TableRow
	var texts []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var row schedule.TableRow
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		rows = append(rows, row)
		texts = append(texts, row.DayCell, row.WorkCell)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, texts, nil
}
