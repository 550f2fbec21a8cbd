package rate

import (
	"cbrrates/internal/domain"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Normalizer struct {
	filter *CurrencyFilter
	now    func() time.Time
}

// Normalize converts a raw row into a record for the given date.
// ok is false when the currency is filtered out by the allow-list.
func (n *Normalizer) Normalize(row domain.RawRow, date string) (record domain.CurrencyRecord, ok bool, err error) {
	if !n.filter.Allows(row.LetterCode) {
		return domain.CurrencyRecord{}, false, nil
	}

	units, err := strconv.Atoi(row.Units)
	if err != nil {
		return domain.CurrencyRecord{}, false, fmt.Errorf("%w: units %q of %s: %w", domain.ErrFieldParse, row.Units, row.LetterCode, err)
	}
	if units <= 0 {
		return domain.CurrencyRecord{}, false, fmt.Errorf("%w: units of %s must be positive, got %d", domain.ErrFieldParse, row.LetterCode, units)
	}

	value, err := ParseLocaleDecimal(row.RateText)
	if err != nil {
		return domain.CurrencyRecord{}, false, fmt.Errorf("%w: rate of %s: %w", domain.ErrFieldParse, row.LetterCode, err)
	}
	if value.IsNegative() {
		return domain.CurrencyRecord{}, false, fmt.Errorf("%w: rate of %s is negative: %s", domain.ErrFieldParse, row.LetterCode, row.RateText)
	}

	return domain.CurrencyRecord{
		DigitalCode:  row.DigitalCode,
		LetterCode:   row.LetterCode,
		Units:        units,
		CurrencyName: row.CurrencyName,
		ExchangeRate: value.InexactFloat64(),
		Date:         date,
		Timestamp:    n.now(),
		Source:       domain.SourceCBR,
	}, true, nil
}

// ParseLocaleDecimal parses numbers written with a comma decimal separator, e.g. "93,4512".
// Spaces used as thousands separators are dropped.
func ParseLocaleDecimal(text string) (decimal.Decimal, error) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		case ',':
			return '.'
		}
		return r
	}, strings.TrimSpace(text))

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed decimal %q", text)
	}
	return d, nil
}

func NewNormalizer(filter *CurrencyFilter, now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{filter: filter, now: now}
}
