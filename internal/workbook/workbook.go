// Package workbook reads the catalog from a local .xlsx export of the
// spreadsheet, for offline use or when no API key is available.
package workbook

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Workbook is a catalog.Source backed by an .xlsx file. The file is reopened
// on every call so edits are picked up on the next cache fill.
type Workbook struct {
	path string
}

// Open checks that path exists and returns a Workbook for it.
func Open(path string) (*Workbook, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("workbook path is empty")
	}
	info, err := os.Stat(trimmed)
	if err != nil {
		return nil, fmt.Errorf("stat workbook: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("workbook %s is a directory", trimmed)
	}
	return &Workbook{path: trimmed}, nil
}

// Path returns the workbook location.
func (w *Workbook) Path() string {
	return w.path
}

// SheetNames lists the sheets in workbook order.
func (w *Workbook) SheetNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	return f.GetSheetList(), nil
}

// Rows returns the rows of sheet the way the Sheets values endpoint does:
// trailing empty cells and rows are dropped, but a blank row in the middle
// stays as an empty row. Book IDs derive from row positions, so both sources
// must count rows the same way for saved favorites to keep matching.
func (w *Workbook) Rows(ctx context.Context, sheet string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	for i, row := range rows {
		rows[i] = trimTrailing(row)
	}
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return rows, nil
}

func trimTrailing(row []string) []string {
	end := len(row)
	for end > 0 && row[end-1] == "" {
		end--
	}
	return row[:end]
}
