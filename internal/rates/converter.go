package rates

import (
	"context"
	"fmt"

	"subtrack/internal/core"
)

// Converter expresses an amount in every supported currency using the rate
// cache. It sits on the write path: a failure here aborts the caller's save,
// because storing unconverted amounts would silently corrupt all later
// reports.
type Converter struct {
	rates *Service
}

// NewConverter creates a converter over the given rate cache.
func NewConverter(rates *Service) *Converter {
	return &Converter{rates: rates}
}

// ConvertToAllCurrencies returns amount expressed in every supported
// currency. The base currency maps back to amount exactly, since
// rates[base] == 1 by construction.
func (c *Converter) ConvertToAllCurrencies(ctx context.Context, amount float64, base core.Currency) (map[core.Currency]float64, error) {
	if !base.IsSupported() {
		return nil, fmt.Errorf("convert %q: %w", base, core.ErrInvalidCurrency)
	}

	table, err := c.rates.GetRates(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("get rates for %s: %w", base, err)
	}

	amounts := make(map[core.Currency]float64, len(table))
	for target, rate := range table {
		amounts[target] = amount * rate
	}
	return amounts, nil
}
