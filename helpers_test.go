package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// Shared test doubles. The provider and cache mocks use the Func-field
// pattern so each test overrides only the behavior it cares about; the
// defaults are a provider returning an empty series and an in-memory cache
// that misses like Redis does.

type mockProvider struct {
	mu              sync.Mutex
	calls           int
	FetchSeriesFunc func(ctx context.Context, lat, lon float64, startDate, endDate time.Time) (TimeSeries, error)
}

func (m *mockProvider) FetchSeries(ctx context.Context, lat, lon float64, startDate, endDate time.Time) (TimeSeries, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.FetchSeriesFunc != nil {
		return m.FetchSeriesFunc(ctx, lat, lon, startDate, endDate)
	}
	return TimeSeries{}, nil
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockCache struct {
	mu      sync.Mutex
	data    map[string]string
	deleted []string
	flushed bool

	SetFunc    func(ctx context.Context, key string, value any, expiration time.Duration) error
	GetFunc    func(ctx context.Context, key string) (string, error)
	DeleteFunc func(ctx context.Context, key string) error
	FlushFunc  func(ctx context.Context) error
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string]string)}
}

func (m *mockCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	p, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(p)
	return nil
}

func (m *mockCache) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	delete(m.data, key)
	return nil
}

func (m *mockCache) Flush(ctx context.Context) error {
	if m.FlushFunc != nil {
		return m.FlushFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushed = true
	m.data = make(map[string]string)
	return nil
}

func (m *mockCache) deletedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

func (m *mockCache) wasFlushed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushed
}

// put stores a pre-marshaled value so a test can seed a cache hit.
func (m *mockCache) put(t *testing.T, key string, value any) {
	t.Helper()
	p, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshaling cache seed: %v", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(p)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, provider SeriesProvider, cache Cache) *RegionStore {
	t.Helper()
	return NewRegionStore(testLogger(), provider, cache, newChangeNotifier())
}

// testNow is the fixed clock handler tests run against.
var testNow = time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)

func newTestConfig(t *testing.T) (*apiConfig, *mockProvider, *mockCache) {
	t.Helper()
	provider := &mockProvider{}
	cache := newMockCache()
	notifier := newChangeNotifier()
	cfg := &apiConfig{
		store:              NewRegionStore(testLogger(), provider, cache, notifier),
		draft:              NewPolygonDraft(),
		notifier:           notifier,
		cache:              cache,
		provider:           provider,
		refreshInterval:    time.Hour,
		timelineDaysBefore: 15,
		timelineDaysAfter:  15,
		port:               "8080",
		devMode:            true,
		logger:             testLogger(),
		nowFunc:            func() time.Time { return testNow },
	}
	return cfg, provider, cache
}

// squareBoundary is a small four-point polygon around the given corner.
func squareBoundary(lat, lon float64) []Point {
	return []Point{
		{Latitude: lat, Longitude: lon},
		{Latitude: lat + 0.01, Longitude: lon},
		{Latitude: lat + 0.01, Longitude: lon + 0.01},
		{Latitude: lat, Longitude: lon + 0.01},
	}
}

// hourlySeries builds a series with consecutive hourly samples starting at
// start.
func hourlySeries(start time.Time, values ...float64) TimeSeries {
	series := TimeSeries{LocationKey: "test"}
	for i, v := range values {
		series.Samples = append(series.Samples, Sample{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Value:     v,
		})
	}
	return series
}
