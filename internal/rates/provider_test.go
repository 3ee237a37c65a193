package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/core"
)

func TestHTTPProviderFetchLatest(t *testing.T) {
	t.Run("success returns supported currencies with identity base", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/key123/latest/USD", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"result": "success",
				"base_code": "USD",
				"conversion_rates": {"USD": 1, "EUR": 0.9, "GBP": 0.8, "JPY": 150, "CHF": 0.85, "SEK": 10.5}
			}`))
		}))
		defer srv.Close()

		provider := NewHTTPProviderWithBaseURL(srv.URL)
		table, err := provider.FetchLatest(context.Background(), core.USD, "key123")
		require.NoError(t, err)

		assert.Equal(t, 1.0, table[core.USD])
		assert.Equal(t, 0.9, table[core.EUR])
		assert.Equal(t, 150.0, table[core.JPY])
		// Unsupported currencies never enter the table.
		_, hasSEK := table[core.Currency("SEK")]
		assert.False(t, hasSEK)
	})

	t.Run("structured error yields ProviderError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"result": "error", "error-type": "invalid-key"}`))
		}))
		defer srv.Close()

		provider := NewHTTPProviderWithBaseURL(srv.URL)
		_, err := provider.FetchLatest(context.Background(), core.USD, "bad-key")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrProvider)

		var pErr *ProviderError
		require.True(t, errors.As(err, &pErr))
		assert.Equal(t, "invalid-key", pErr.ErrorType)
	})

	t.Run("missing credential short-circuits without I/O", func(t *testing.T) {
		provider := NewHTTPProviderWithBaseURL("http://127.0.0.1:1")

		_, err := provider.FetchLatest(context.Background(), core.USD, "")
		assert.ErrorIs(t, err, ErrNoCredential)

		_, err = provider.FetchLatest(context.Background(), core.USD, PlaceholderAPIKey)
		assert.ErrorIs(t, err, ErrNoCredential)
	})

	t.Run("unreachable provider returns transport error", func(t *testing.T) {
		provider := NewHTTPProviderWithBaseURL("http://127.0.0.1:1")
		_, err := provider.FetchLatest(context.Background(), core.USD, "key123")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrProvider)
		assert.NotErrorIs(t, err, ErrNoCredential)
	})
}
