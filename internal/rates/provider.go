// Package rates acquires, caches, and serves currency conversion tables.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"subtrack/internal/core"
)

// PlaceholderAPIKey is the credential value shipped in example configs; it is
// treated the same as no credential at all.
const PlaceholderAPIKey = "changeme"

const defaultBaseURL = "https://v6.exchangerate-api.com/v6"

var (
	// ErrNoCredential signals that no usable rate-provider credential is
	// configured. Callers degrade to fallback rates on this condition.
	ErrNoCredential = errors.New("no rate provider credential configured")

	// ErrProvider marks structured errors returned by the rate provider
	// after a real credential was supplied.
	ErrProvider = errors.New("rate provider error")
)

// Provider fetches the latest conversion table for a base currency.
type Provider interface {
	FetchLatest(ctx context.Context, base core.Currency, apiKey string) (map[core.Currency]float64, error)
}

// ProviderError is a structured error response from the rate provider.
type ProviderError struct {
	ErrorType string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("rate provider error: %s", e.ErrorType)
}

func (e *ProviderError) Unwrap() error { return ErrProvider }

// HTTPProvider calls the exchangerate HTTP API. The client timeout bounds a
// hung provider so reports degrade to fallback rates instead of stalling.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProvider creates a provider against the public endpoint.
func NewHTTPProvider() *HTTPProvider {
	return &HTTPProvider{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// NewHTTPProviderWithBaseURL creates a provider against a custom endpoint.
func NewHTTPProviderWithBaseURL(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type latestResponse struct {
	Result          string             `json:"result"`
	ErrorType       string             `json:"error-type"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

// FetchLatest retrieves the latest rate table for base. It returns
// ErrNoCredential when apiKey is absent or the shipped placeholder, and a
// *ProviderError when the provider answers with a structured error payload.
func (p *HTTPProvider) FetchLatest(ctx context.Context, base core.Currency, apiKey string) (map[core.Currency]float64, error) {
	if apiKey == "" || apiKey == PlaceholderAPIKey {
		return nil, ErrNoCredential
	}

	url := fmt.Sprintf("%s/%s/latest/%s", p.baseURL, apiKey, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates for %s: %w", base, err)
	}
	defer resp.Body.Close()

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rates response: %w", err)
	}

	if body.Result != "success" {
		return nil, &ProviderError{ErrorType: body.ErrorType}
	}

	table := make(map[core.Currency]float64, len(core.SupportedCurrencies()))
	for code, rate := range body.ConversionRates {
		c := core.Currency(code)
		if c.IsSupported() {
			table[c] = rate
		}
	}
	table[base] = 1

	return table, nil
}
