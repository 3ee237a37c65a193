package rates

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/core"
)

func TestConverterIdentity(t *testing.T) {
	provider := &fakeProvider{table: fullTable()}
	converter := NewConverter(NewService(provider, "key123"))

	for _, base := range core.SupportedCurrencies() {
		amounts, err := converter.ConvertToAllCurrencies(context.Background(), 42.5, base)
		require.NoError(t, err)
		assert.Equal(t, 42.5, amounts[base], "amount in its own currency must survive conversion for %s", base)
		assert.Len(t, amounts, len(core.SupportedCurrencies()))
	}
}

func TestConverterAppliesRates(t *testing.T) {
	provider := &fakeProvider{table: fullTable()}
	converter := NewConverter(NewService(provider, "key123"))

	amounts, err := converter.ConvertToAllCurrencies(context.Background(), 200, core.USD)
	require.NoError(t, err)

	assert.Equal(t, 200.0, amounts[core.USD])
	assert.InDelta(t, 180.0, amounts[core.EUR], 1e-9)
	assert.InDelta(t, 30000.0, amounts[core.JPY], 1e-9)
}

func TestConverterRejectsUnsupportedBase(t *testing.T) {
	converter := NewConverter(NewService(&fakeProvider{table: fullTable()}, "key123"))

	_, err := converter.ConvertToAllCurrencies(context.Background(), 10, core.Currency("BTC"))
	assert.ErrorIs(t, err, core.ErrInvalidCurrency)
}

func TestConverterPropagatesProviderError(t *testing.T) {
	provider := &fakeProvider{err: &ProviderError{ErrorType: "invalid-key"}}
	converter := NewConverter(NewService(provider, "key123"))

	_, err := converter.ConvertToAllCurrencies(context.Background(), 10, core.USD)
	assert.ErrorIs(t, err, ErrProvider)
}
