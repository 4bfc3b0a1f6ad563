package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrankfurterClient_Rate(t *testing.T) {
	t.Parallel()

	t.Run("fetches rate", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/latest", r.URL.Path)
			assert.Equal(t, "USD", r.URL.Query().Get("from"))
			assert.Equal(t, "SGD", r.URL.Query().Get("to"))
			_, _ = w.Write([]byte(`{"amount":1,"base":"USD","date":"2026-02-14","rates":{"SGD":1.35}}`))
		}))
		defer server.Close()

		client := NewFrankfurterClient(server.URL+"/", time.Second)
		got, err := client.Rate(context.Background(), "usd", "sgd")
		require.NoError(t, err)
		require.Equal(t, decimal.RequireFromString("1.35"), got.Value)
		require.Equal(t, "USD", got.From)
		require.Equal(t, "SGD", got.To)
		require.Equal(t, "2026-02-14", got.Date.Format("2006-01-02"))
		require.Equal(t, "13.5", got.Apply(decimal.NewFromInt(10)).String())
	})

	t.Run("returns error on non 200 response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := NewFrankfurterClient(server.URL, time.Second).Rate(context.Background(), "USD", "SGD")
		require.Error(t, err)
		require.Contains(t, err.Error(), "status 502")
	})

	t.Run("returns error when target rate is missing", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"amount":1,"base":"USD","date":"2026-02-14","rates":{"EUR":0.93}}`))
		}))
		defer server.Close()

		_, err := NewFrankfurterClient(server.URL, time.Second).Rate(context.Background(), "USD", "SGD")
		require.ErrorIs(t, err, errRateMissing)
	})

	t.Run("returns error when target rate is non-positive", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"amount":1,"base":"USD","date":"2026-02-14","rates":{"SGD":0}}`))
		}))
		defer server.Close()

		_, err := NewFrankfurterClient(server.URL, time.Second).Rate(context.Background(), "USD", "SGD")
		require.ErrorIs(t, err, errInvalidNonPositiveRate)
	})

	t.Run("returns error on malformed body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer server.Close()

		_, err := NewFrankfurterClient(server.URL, time.Second).Rate(context.Background(), "USD", "SGD")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to decode")
	})

	t.Run("same currency needs no request", func(t *testing.T) {
		t.Parallel()

		got, err := NewFrankfurterClient("http://127.0.0.1:1", time.Second).Rate(context.Background(), "SGD", "SGD")
		require.NoError(t, err)
		require.Equal(t, decimal.NewFromInt(1), got.Value)
	})

	t.Run("requires both currencies", func(t *testing.T) {
		t.Parallel()

		_, err := NewFrankfurterClient("", time.Second).Rate(context.Background(), "", "SGD")
		require.ErrorIs(t, err, errCurrencyRequired)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = fmt.Fprint(w, `{"amount":1,"base":"USD","date":"2026-02-14","rates":{"SGD":1.35}}`)
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := NewFrankfurterClient(server.URL, time.Second).Rate(ctx, "USD", "SGD")
		require.Error(t, err)
	})
}
