package rate

import (
	"cbrrates/internal/domain"
	"fmt"
	"slices"
	"time"
)

// Store accumulates records of a single run in the order they were parsed.
// It is owned by one run and is not safe for concurrent use.
type Store struct {
	records []domain.CurrencyRecord
}

func (s *Store) Append(records ...domain.CurrencyRecord) {
	s.records = append(s.records, records...)
}

func (s *Store) Len() int { return len(s.records) }

// Records returns a copy of the stored records, ready to be sent as JSON.
func (s *Store) Records() []domain.CurrencyRecord {
	return slices.Clone(s.records)
}

// Table returns the header and one typed row per record, columns in record field order.
func (s *Store) Table() ([]string, [][]any) {
	rows := make([][]any, 0, len(s.records))
	for _, r := range s.records {
		rows = append(rows, []any{
			r.DigitalCode,
			r.LetterCode,
			r.Units,
			r.CurrencyName,
			r.ExchangeRate,
			r.Date,
			r.Timestamp.Format(time.RFC3339Nano),
			r.Source,
		})
	}
	return slices.Clone(domain.RecordFields), rows
}

func (s *Store) Lookup(letterCode string) (domain.CurrencyRecord, bool) {
	for _, r := range s.records {
		if r.LetterCode == letterCode {
			return r, true
		}
	}
	return domain.CurrencyRecord{}, false
}

func (s *Store) FilterByCurrencies(letterCodes []string) []domain.CurrencyRecord {
	filter := NewCurrencyFilter(letterCodes)
	out := make([]domain.CurrencyRecord, 0, len(s.records))
	for _, r := range s.records {
		if filter.Allows(r.LetterCode) {
			out = append(out, r)
		}
	}
	return out
}

// ConvertToRubles converts amount of the given currency at its quoted rate per units.
func (s *Store) ConvertToRubles(amount float64, letterCode string) (float64, error) {
	r, ok := s.Lookup(letterCode)
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrRateNotFound, letterCode)
	}
	return amount * r.ExchangeRate / float64(r.Units), nil
}

func NewStore() *Store {
	return &Store{records: make([]domain.CurrencyRecord, 0, 64)}
}
