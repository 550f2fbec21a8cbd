package rate

import (
	"cbrrates/internal/domain"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultKeyFields is the natural identity of a record
var DefaultKeyFields = []string{"digital_code", "date"}

// Dedupe keeps the first record of every composite key built from keyFields, preserving order.
func Dedupe(records []domain.CurrencyRecord, keyFields []string) []domain.CurrencyRecord {
	seen := make(map[string]struct{}, len(records))
	unique := make([]domain.CurrencyRecord, 0, len(records))

	parts := make([]string, len(keyFields))
	for _, r := range records {
		for i, field := range keyFields {
			parts[i], _ = FieldValue(r, field)
		}
		key := strings.Join(parts, "\x1f")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, r)
	}
	return unique
}

// FieldValue stringifies a record field by its JSON name. Unknown names yield "" and false.
func FieldValue(r domain.CurrencyRecord, field string) (string, bool) {
	switch field {
	case "digital_code":
		return r.DigitalCode, true
	case "letter_code":
		return r.LetterCode, true
	case "units":
		return strconv.Itoa(r.Units), true
	case "currency_name":
		return r.CurrencyName, true
	case "exchange_rate":
		return strconv.FormatFloat(r.ExchangeRate, 'f', -1, 64), true
	case "date":
		return r.Date, true
	case "timestamp":
		return r.Timestamp.Format(time.RFC3339Nano), true
	case "source":
		return r.Source, true
	}
	return "", false
}

func ValidateKeyFields(keyFields []string) error {
	if len(keyFields) == 0 {
		return fmt.Errorf("dedupe key fields are empty")
	}
	for _, f := range keyFields {
		if !slices.Contains(domain.RecordFields, f) {
			return fmt.Errorf("unknown dedupe key field %q", f)
		}
	}
	return nil
}
