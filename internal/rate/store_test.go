package rate

import (
	"cbrrates/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func record(digital, letter string, units int, rate float64, date string) domain.CurrencyRecord {
	return domain.CurrencyRecord{
		DigitalCode:  digital,
		LetterCode:   letter,
		Units:        units,
		CurrencyName: letter + " name",
		ExchangeRate: rate,
		Date:         date,
		Timestamp:    fixedNow,
		Source:       domain.SourceCBR,
	}
}

func TestStore_AppendAndRecordsCopy(t *testing.T) {
	s := NewStore()
	s.Append(record("840", "USD", 1, 93.45, "14.10.2025"))
	s.Append(record("978", "EUR", 1, 101.2, "14.10.2025"))

	got := s.Records()
	require.Len(t, got, 2)
	got[0].LetterCode = "XXX"

	require.Equal(t, "USD", s.Records()[0].LetterCode)
	require.Equal(t, 2, s.Len())
}

func TestStore_Table(t *testing.T) {
	s := NewStore()
	s.Append(record("036", "AUD", 1, 52.4375, "14.10.2025"))

	header, rows := s.Table()

	require.Equal(t, domain.RecordFields, header)
	require.Len(t, rows, 1)
	require.Equal(t, []any{
		"036", "AUD", 1, "AUD name", 52.4375, "14.10.2025",
		fixedNow.Format(time.RFC3339Nano), "cbr.ru",
	}, rows[0])
}

func TestStore_Lookup_FirstMatchWins(t *testing.T) {
	s := NewStore()
	s.Append(record("840", "USD", 1, 93.45, "14.10.2025"))
	s.Append(record("840", "USD", 1, 94.0, "15.10.2025"))

	r, ok := s.Lookup("USD")
	require.True(t, ok)
	require.InDelta(t, 93.45, r.ExchangeRate, 1e-12)

	_, ok = s.Lookup("GBP")
	require.False(t, ok)
}

func TestStore_FilterByCurrencies(t *testing.T) {
	s := NewStore()
	s.Append(record("840", "USD", 1, 93.45, "14.10.2025"))
	s.Append(record("978", "EUR", 1, 101.2, "14.10.2025"))
	s.Append(record("156", "CNY", 10, 128.9, "14.10.2025"))

	got := s.FilterByCurrencies([]string{"CNY", "USD"})
	require.Len(t, got, 2)
	require.Equal(t, "USD", got[0].LetterCode)
	require.Equal(t, "CNY", got[1].LetterCode)
}

func TestStore_ConvertToRubles(t *testing.T) {
	s := NewStore()
	s.Append(record("156", "CNY", 10, 128.9, "14.10.2025"))

	rub, err := s.ConvertToRubles(100, "CNY")
	require.NoError(t, err)
	require.InDelta(t, 1289.0, rub, 1e-9)

	_, err = s.ConvertToRubles(100, "GBP")
	require.ErrorIs(t, err, domain.ErrRateNotFound)
}
