package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// This file provides the external data-provider client. The provider is
// abstracted behind the SeriesProvider interface so the store and the
// recompute pipeline never depend on a concrete upstream, which also keeps
// them trivially testable. The production implementation talks to the
// Open-Meteo archive API.

// SeriesProvider supplies an hourly temperature series for a coordinate
// over a calendar-day span. The request is bucketed by day even though the
// returned samples are hourly.
type SeriesProvider interface {
	FetchSeries(ctx context.Context, lat, lon float64, startDate, endDate time.Time) (TimeSeries, error)
}

// OMeteoProvider implements SeriesProvider against the Open-Meteo archive
// API. It requests UTC timestamps so series samples line up with the UTC
// timeline grid without any client-side timezone math.
type OMeteoProvider struct {
	archiveURL string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOMeteoProvider(archiveURL string, httpClient *http.Client, logger *slog.Logger) *OMeteoProvider {
	return &OMeteoProvider{
		archiveURL: archiveURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (p *OMeteoProvider) FetchSeries(ctx context.Context, lat, lon float64, startDate, endDate time.Time) (TimeSeries, error) {
	baseURL, err := url.Parse(p.archiveURL)
	if err != nil {
		return TimeSeries{}, fmt.Errorf("failed to parse archive URL: %w", err)
	}

	q := baseURL.Query()
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("start_date", startDate.UTC().Format("2006-01-02"))
	q.Set("end_date", endDate.UTC().Format("2006-01-02"))
	q.Set("hourly", "temperature_2m")
	q.Set("timezone", "UTC")
	baseURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return TimeSeries{}, fmt.Errorf("failed to build archive request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return TimeSeries{}, fmt.Errorf("archive API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TimeSeries{}, fmt.Errorf("archive API request returned non-200 status: %s", resp.Status)
	}

	var responseJSON archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&responseJSON); err != nil {
		return TimeSeries{}, fmt.Errorf("failed to decode archive response: %w", err)
	}

	return parseSeriesFromResponse(responseJSON, lat, lon)
}

// parseSeriesFromResponse pairs the parallel time/value arrays into
// samples. The arrays must line up; a length mismatch means a malformed
// upstream payload, not partial data.
func parseSeriesFromResponse(resp archiveResponse, lat, lon float64) (TimeSeries, error) {
	times := resp.Hourly.Time
	temps := resp.Hourly.Temperature
	if len(times) != len(temps) {
		return TimeSeries{}, fmt.Errorf("archive response arrays mismatched: %d timestamps, %d values", len(times), len(temps))
	}

	series := TimeSeries{
		LocationKey: locationKey(lat, lon),
		Samples:     make([]Sample, 0, len(times)),
	}
	for i, raw := range times {
		ts, err := time.Parse("2006-01-02T15:04", raw)
		if err != nil {
			return TimeSeries{}, fmt.Errorf("failed to parse sample timestamp %q: %w", raw, err)
		}
		series.Samples = append(series.Samples, Sample{Timestamp: ts.UTC(), Value: temps[i]})
	}
	return series, nil
}

// locationKey identifies the coordinate a series was fetched for. Rounded
// to four decimals, which is finer than the provider's own grid.
func locationKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}

// The following structs represent the structure of the Open-Meteo archive
// API JSON response. They are used by the json decoder to parse the API's
// output.
type archiveResponse struct {
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Hourly    archiveHourly `json:"hourly"`
}

type archiveHourly struct {
	Time        []string  `json:"time"`
	Temperature []float64 `json:"temperature_2m"`
}
