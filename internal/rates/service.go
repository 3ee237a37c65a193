package rates

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"subtrack/internal/cache"
	"subtrack/internal/core"
)

// CacheTTL is how long a fetched (or fallback) rate table stays fresh.
// External providers rate-limit, and the report engine asks for rates inside
// per-day loops, so the cache bounds network calls to at most one per base
// currency per hour.
const CacheTTL = time.Hour

// fallbackRates holds static approximations used when no credential is
// configured or the provider is unreachable. Bases not listed here get
// identity rates only.
var fallbackRates = map[core.Currency]map[core.Currency]float64{
	core.USD: {core.EUR: 0.92, core.GBP: 0.79, core.JPY: 155, core.CHF: 0.88},
	core.EUR: {core.USD: 1.09, core.GBP: 0.86, core.JPY: 168, core.CHF: 0.96},
}

// Service is the rate cache: it answers GetRates from a TTL cache, fetching
// from the provider on miss and degrading to fallback rates when no usable
// credential exists or the provider is unreachable.
type Service struct {
	provider Provider
	apiKey   string
	cache    *cache.TTLCache[map[core.Currency]float64]
}

// NewService creates a rate cache reading time from the system clock.
func NewService(provider Provider, apiKey string) *Service {
	return NewServiceWithClock(provider, apiKey, time.Now)
}

// NewServiceWithClock creates a rate cache with an explicit clock, so TTL
// expiry is testable.
func NewServiceWithClock(provider Provider, apiKey string, now func() time.Time) *Service {
	return &Service{
		provider: provider,
		apiKey:   apiKey,
		cache:    cache.NewTTLCacheWithClock[map[core.Currency]float64](CacheTTL, now),
	}
}

// Cache exposes the underlying cache for cleanup registration.
func (s *Service) Cache() cache.Cleaner {
	return s.cache
}

// GetRates returns a complete conversion table for base, keyed by every
// supported currency with rates[base] == 1. It fails only when the provider
// answers with a structured error after a real credential was supplied;
// every other problem degrades to approximate fallback rates.
func (s *Service) GetRates(ctx context.Context, base core.Currency) (map[core.Currency]float64, error) {
	if cached, ok := s.cache.Get(string(base)); ok {
		return cached, nil
	}

	fetched, err := s.provider.FetchLatest(ctx, base, s.apiKey)
	switch {
	case err == nil:
		table := s.complete(ctx, base, fetched)
		s.cache.Set(string(base), table)
		return table, nil

	case errors.Is(err, ErrProvider):
		// A real credential was supplied and the provider rejected the
		// call. Persisting conversions built on guesses would corrupt
		// every later report, so this one fails loudly.
		return nil, err

	default:
		slog.WarnContext(ctx, "Falling back to approximate rates",
			"base", base,
			"reason", err)
		table := FallbackTable(base)
		s.cache.Set(string(base), table)
		return table, nil
	}
}

// complete fills any supported currency the provider omitted, so callers can
// index the table without existence checks.
func (s *Service) complete(ctx context.Context, base core.Currency, fetched map[core.Currency]float64) map[core.Currency]float64 {
	table := make(map[core.Currency]float64, len(core.SupportedCurrencies()))
	approx := fallbackRates[base]
	for _, c := range core.SupportedCurrencies() {
		if rate, ok := fetched[c]; ok {
			table[c] = rate
			continue
		}
		slog.WarnContext(ctx, "Provider omitted a supported currency, approximating",
			"base", base,
			"currency", c)
		if rate, ok := approx[c]; ok {
			table[c] = rate
		} else {
			table[c] = 1
		}
	}
	table[base] = 1
	return table
}

// FallbackTable synthesizes an approximate rate table for base: identity for
// every supported currency, overridden by the static approximations for
// well-known bases.
func FallbackTable(base core.Currency) map[core.Currency]float64 {
	table := make(map[core.Currency]float64, len(core.SupportedCurrencies()))
	for _, c := range core.SupportedCurrencies() {
		table[c] = 1
	}
	for c, rate := range fallbackRates[base] {
		table[c] = rate
	}
	table[base] = 1
	return table
}
