package rate

import (
	"maps"
	"slices"
	"strings"
)

// CurrencyFilter is the optional allow-list of letter codes. An empty filter allows everything.
type CurrencyFilter struct {
	codesSet map[string]struct{} // read only copy
	codesLst []string            // read only copy
}

func (f *CurrencyFilter) Allows(letterCode string) bool {
	if f == nil || len(f.codesSet) == 0 {
		return true
	}
	_, ok := f.codesSet[letterCode]
	return ok
}

func (f *CurrencyFilter) Codes() []string {
	if f == nil {
		return nil
	}
	return slices.Clone(f.codesLst)
}

func NewCurrencyFilter(codes []string) *CurrencyFilter {
	codesSet := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		codesSet[c] = struct{}{}
	}
	codesLst := slices.Collect(maps.Keys(codesSet))
	slices.Sort(codesLst)

	return &CurrencyFilter{
		codesSet: codesSet,
		codesLst: codesLst,
	}
}
