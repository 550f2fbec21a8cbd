package rate

import (
	"cbrrates/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CalculateChanges pairs current records with previous ones by letter code (first match wins).
// Currencies without a previous record get nil deltas. A zero previous rate leaves the percentage nil.
func CalculateChanges(current, previous []domain.CurrencyRecord) []domain.RateChange {
	prevByCode := make(map[string]float64, len(previous))
	for _, p := range previous {
		if _, ok := prevByCode[p.LetterCode]; !ok {
			prevByCode[p.LetterCode] = p.ExchangeRate
		}
	}

	changes := make([]domain.RateChange, 0, len(current))
	for _, cur := range current {
		rc := domain.RateChange{CurrencyRecord: cur}
		prevRate, ok := prevByCode[cur.LetterCode]
		if ok {
			prev := decimal.NewFromFloat(prevRate)
			delta := decimal.NewFromFloat(cur.ExchangeRate).Sub(prev)

			rc.Change = ptr(delta.InexactFloat64())
			rc.PreviousRate = ptr(prevRate)
			if !prev.IsZero() {
				rc.ChangePercent = ptr(delta.Div(prev).Mul(hundred).InexactFloat64())
			}
		}
		changes = append(changes, rc)
	}
	return changes
}

func ptr[T any](v T) *T { return &v }
