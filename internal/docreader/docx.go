// Package docreader extracts schedule table rows from input documents.
// Two formats are supported: the official .docx weekly schedule (table of
// date-cell / work-cell rows) and a JSONL export of the same rows.
package docreader

import (
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	apperrors "github.com/tmuhub/tmu-weekly-bot/internal/errors"
	"github.com/tmuhub/tmu-weekly-bot/internal/schedule"
)

// ReadDocx parses a .docx document and returns its table rows as
// (date-cell, work-cell) pairs plus every text fragment in document order,
// the latter for year inference.
func ReadDocx(path string) ([]schedule.TableRow, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open document: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("stat document: %w", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, nil, apperrors.NewIngestError(path, fmt.Errorf("parse document: %w", err))
	}

	var rows []schedule.TableRow
	var texts []string

	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			if text := strings.TrimSpace(fmt.Sprint(it)); text != "" {
				texts = append(texts, text)
			}
		case *docx.Table:
			tRows, tTexts := tableRows(it)
			rows = append(rows, tRows...)
			texts = append(texts, tTexts...)
		}
	}

	if len(rows) == 0 {
		return nil, texts, apperrors.NewIngestError(path, apperrors.ErrNoEvents)
	}
	return rows, texts, nil
}

// tableRows flattens a table into (date-cell, work-cell) pairs. Rows with
// fewer than two cells are kept only as loose text.
func tableRows(t *docx.Table) ([]schedule.TableRow, []string) {
	var rows []schedule.TableRow
	var texts []string

	for _, row := range t.TableRows {
		var cells []string
		for _, cell := range row.TableCells {
			var parts []string
			for _, p := range cell.Paragraphs {
				if text := strings.TrimSpace(fmt.Sprint(p)); text != "" {
					parts = append(parts, text)
				}
			}
			cells = append(cells, strings.Join(parts, "\n"))
		}

		texts = append(texts, cells...)
		if len(cells) >= 2 {
			rows = append(rows, schedule.TableRow{
				DayCell:  cells[0],
				WorkCell: strings.Join(cells[1:], "\n"),
			})
		}
	}
	return rows, texts
}
