package excel

import (
	"cbrrates/internal/domain"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	DefaultSheetName      = "Курсы валют"
	DefaultMaxColumnWidth = 50
)

// Writer saves tabular records as a single-sheet xlsx workbook.
type Writer struct {
	sheetName      string
	maxColumnWidth int
}

// Write creates (or overwrites) the workbook at path. Missing parent directories are created.
// Column width is the longest cell text plus 2, capped at the configured maximum.
func (w *Writer) Write(path string, header []string, rows [][]any) error {
	if len(rows) == 0 {
		return fmt.Errorf("failed to write %s: %w", path, domain.ErrNoRecords)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), w.sheetName); err != nil {
		return fmt.Errorf("failed to name sheet %q: %w", w.sheetName, err)
	}

	widths := make([]int, len(header))
	track := func(col int, v any) {
		if col >= len(widths) {
			return
		}
		if n := utf8.RuneCountInString(fmt.Sprint(v)); n > widths[col] {
			widths[col] = n
		}
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
		track(i, h)
	}
	if err := f.SetSheetRow(w.sheetName, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err = f.SetSheetRow(w.sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
		for col, v := range row {
			track(col, v)
		}
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err = f.SetColWidth(w.sheetName, col, col, float64(min(width+2, w.maxColumnWidth))); err != nil {
			return fmt.Errorf("failed to set width of column %s: %w", col, err)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir %q: %w", dir, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %q: %w", path, err)
	}
	return nil
}

func NewWriter(sheetName string, maxColumnWidth int) *Writer {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	if maxColumnWidth <= 0 {
		maxColumnWidth = DefaultMaxColumnWidth
	}
	return &Writer{sheetName: sheetName, maxColumnWidth: maxColumnWidth}
}
