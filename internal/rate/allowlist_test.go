package rate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCurrencyFilter_EmptyAllowsEverything(t *testing.T) {
	f := NewCurrencyFilter(nil)
	require.True(t, f.Allows("USD"))
	require.True(t, f.Allows("XDR"))
	require.Empty(t, f.Codes())
}

func TestCurrencyFilter_NilAllowsEverything(t *testing.T) {
	var f *CurrencyFilter
	require.True(t, f.Allows("USD"))
	require.Nil(t, f.Codes())
}

func TestCurrencyFilter_AllowsOnlyListed(t *testing.T) {
	f := NewCurrencyFilter([]string{" usd", "EUR", ""})
	require.True(t, f.Allows("USD"))
	require.True(t, f.Allows("EUR"))
	require.False(t, f.Allows("CNY"))
	require.Equal(t, []string{"EUR", "USD"}, f.Codes())
}

func TestCurrencyFilter_CodesReturnsCopy(t *testing.T) {
	f := NewCurrencyFilter([]string{"USD", "EUR", "JPY"})

	got := f.Codes()
	got[0] = "XXX"

	// caller modifications must not leak into the filter
	require.ElementsMatch(t, []string{"USD", "EUR", "JPY"}, f.Codes())
}
