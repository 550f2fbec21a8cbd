package cbr

import (
	"cbrrates/internal/domain"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ratesTableSelector marks the daily rates table on the page
const ratesTableSelector = "table.data"

const minColumns = 5

// ExtractRows returns the rows of the rates table in document order.
// Rows with fewer than five cells (headers, malformed rows) are skipped.
// Bare rows get an implied tbody from the parser, so only a table without rows lacks a body.
func ExtractRows(page string) ([]domain.RawRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse page: %w", domain.ErrParseAnomaly, err)
	}

	table := doc.Find(ratesTableSelector).First()
	if table.Length() == 0 {
		return nil, domain.ErrTableNotFound
	}
	body := table.Find("tbody").First()
	if body.Length() == 0 {
		return nil, domain.ErrTableBodyNotFound
	}

	rows := make([]domain.RawRow, 0, 64)
	body.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cols := tr.Find("td")
		if cols.Length() < minColumns {
			return
		}
		cell := func(i int) string { return strings.TrimSpace(cols.Eq(i).Text()) }
		rows = append(rows, domain.RawRow{
			DigitalCode:  cell(0),
			LetterCode:   cell(1),
			Units:        cell(2),
			CurrencyName: cell(3),
			RateText:     cell(4),
		})
	})
	return rows, nil
}
