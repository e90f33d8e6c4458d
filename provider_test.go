package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOMeteoProviderFetchSeries(t *testing.T) {
	start := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	end := start

	t.Run("parses a valid response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "52.0050", q.Get("latitude"))
			assert.Equal(t, "21.0050", q.Get("longitude"))
			assert.Equal(t, "2026-08-28", q.Get("start_date"))
			assert.Equal(t, "2026-08-28", q.Get("end_date"))
			assert.Equal(t, "temperature_2m", q.Get("hourly"))
			assert.Equal(t, "UTC", q.Get("timezone"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"latitude": 52.0,
				"longitude": 21.0,
				"hourly": {
					"time": ["2026-08-28T00:00", "2026-08-28T01:00", "2026-08-28T02:00"],
					"temperature_2m": [17.1, 16.8, 16.4]
				}
			}`))
		}))
		defer server.Close()

		provider := NewOMeteoProvider(server.URL, server.Client(), testLogger())
		series, err := provider.FetchSeries(context.Background(), 52.005, 21.005, start, end)
		require.NoError(t, err)

		assert.Equal(t, "52.0050,21.0050", series.LocationKey)
		require.Len(t, series.Samples, 3)
		assert.Equal(t, time.Date(2026, 8, 28, 1, 0, 0, 0, time.UTC), series.Samples[1].Timestamp)
		assert.Equal(t, 16.8, series.Samples[1].Value)
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer server.Close()

		provider := NewOMeteoProvider(server.URL, server.Client(), testLogger())
		_, err := provider.FetchSeries(context.Background(), 52, 21, start, end)
		assert.Error(t, err)
	})

	t.Run("mismatched parallel arrays are an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"hourly": {"time": ["2026-08-28T00:00", "2026-08-28T01:00"], "temperature_2m": [17.1]}}`))
		}))
		defer server.Close()

		provider := NewOMeteoProvider(server.URL, server.Client(), testLogger())
		_, err := provider.FetchSeries(context.Background(), 52, 21, start, end)
		assert.Error(t, err)
	})

	t.Run("malformed timestamp is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"hourly": {"time": ["yesterday"], "temperature_2m": [17.1]}}`))
		}))
		defer server.Close()

		provider := NewOMeteoProvider(server.URL, server.Client(), testLogger())
		_, err := provider.FetchSeries(context.Background(), 52, 21, start, end)
		assert.Error(t, err)
	})

	t.Run("invalid body is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer server.Close()

		provider := NewOMeteoProvider(server.URL, server.Client(), testLogger())
		_, err := provider.FetchSeries(context.Background(), 52, 21, start, end)
		assert.Error(t, err)
	})

	t.Run("unreachable server is an error", func(t *testing.T) {
		provider := NewOMeteoProvider("http://127.0.0.1:1", &http.Client{Timeout: 100 * time.Millisecond}, testLogger())
		_, err := provider.FetchSeries(context.Background(), 52, 21, start, end)
		assert.Error(t, err)
	})
}

func TestLocationKey(t *testing.T) {
	assert.Equal(t, "52.2297,21.0122", locationKey(52.2297, 21.0122))
	assert.Equal(t, "-33.8688,151.2093", locationKey(-33.8688, 151.2093))
	assert.Equal(t, "0.0000,0.0000", locationKey(0, 0))
}
