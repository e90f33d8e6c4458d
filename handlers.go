package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// This file contains the HTTP handlers for the drawing, region, timeline
// and event endpoints. Handlers parse and validate the request, delegate to
// the draft machine or the region store, and write a standardized JSON
// response.

// handlerDrawStart begins a polygon draft.
// Example request: POST /api/draw/start
func (cfg *apiConfig) handlerDrawStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	snap := cfg.draft.Start()
	cfg.respondWithJSON(w, http.StatusOK, DraftResponse{Drawing: snap.Drawing, Points: snap.Points})
}

// handlerDrawPoint appends a click to the active draft. When the click
// completes the polygon, the finished boundary is promoted to a region and
// returned in the response.
// Example request: POST /api/draw/point {"latitude": 52.23, "longitude": 21.01}
func (cfg *apiConfig) handlerDrawPoint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var point Point
	if err := json.NewDecoder(r.Body).Decode(&point); err != nil {
		cfg.respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	snap := cfg.draft.AddPoint(point)
	if !snap.Completed {
		cfg.respondWithJSON(w, http.StatusOK, DraftResponse{Drawing: snap.Drawing, Points: snap.Points})
		return
	}

	// The recompute scheduled by CreateRegion outlives this request, so it
	// must not run under the request context.
	region, err := cfg.store.CreateRegion(context.Background(), snap.Polygon, "", "", nil)
	if err != nil {
		cfg.respondWithError(w, http.StatusInternalServerError, "Error creating region", err)
		return
	}
	regionJSON := regionToJSON(region)
	cfg.respondWithJSON(w, http.StatusCreated, DraftResponse{Completed: true, Region: &regionJSON})
}

// handlerDrawCancel abandons the active draft.
// Example request: POST /api/draw/cancel
func (cfg *apiConfig) handlerDrawCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	snap := cfg.draft.Cancel()
	cfg.respondWithJSON(w, http.StatusOK, DraftResponse{Drawing: snap.Drawing, Points: snap.Points})
}

// handlerRegions lists all regions in creation order.
// Example request: GET /api/regions
func (cfg *apiConfig) handlerRegions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	regions := cfg.store.Regions()
	out := make([]RegionJSON, 0, len(regions))
	for _, region := range regions {
		out = append(out, regionToJSON(region))
	}
	cfg.respondWithJSON(w, http.StatusOK, RegionsResponse{Regions: out})
}

// handlerRegion reads or deletes a single region addressed by id or name.
// Example requests:
//
//	GET /api/region?id=<uuid>
//	DELETE /api/region?name=Region%201
func (cfg *apiConfig) handlerRegion(w http.ResponseWriter, r *http.Request) {
	region, err := cfg.regionFromRequest(r)
	if err != nil {
		if errors.Is(err, ErrRegionNotFound) {
			cfg.respondWithError(w, http.StatusNotFound, "Region not found", nil)
			return
		}
		cfg.respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	switch r.Method {
	case http.MethodGet:
		cfg.respondWithJSON(w, http.StatusOK, RegionResponse{Region: regionToJSON(region)})
	case http.MethodDelete:
		if err := cfg.store.DeleteRegion(r.Context(), region.ID); err != nil {
			cfg.respondWithError(w, http.StatusInternalServerError, "Error deleting region", err)
			return
		}
		cfg.respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// handlerRegionRules replaces a region's color rules wholesale.
// Example request: PUT /api/region/rules?id=<uuid> with body
// {"rules": [{"operator": ">=", "threshold": 25, "color": "#ef4444"}]}
func (cfg *apiConfig) handlerRegionRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	region, err := cfg.regionFromRequest(r)
	if err != nil {
		if errors.Is(err, ErrRegionNotFound) {
			cfg.respondWithError(w, http.StatusNotFound, "Region not found", nil)
			return
		}
		cfg.respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	params := struct {
		Rules []ColorRule `json:"rules"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		cfg.respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if params.Rules == nil {
		cfg.respondWithError(w, http.StatusBadRequest, "Missing rules", nil)
		return
	}

	if err := cfg.store.UpdateRules(context.Background(), region.ID, params.Rules); err != nil {
		cfg.respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	updated, _ := cfg.store.Region(region.ID)
	cfg.respondWithJSON(w, http.StatusOK, RegionResponse{Region: regionToJSON(updated)})
}

// handlerRegionDataSource switches a region to another catalog data source.
// Example request: PUT /api/region/datasource?id=<uuid> with body
// {"data_source": "Open-Meteo"}
func (cfg *apiConfig) handlerRegionDataSource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	region, err := cfg.regionFromRequest(r)
	if err != nil {
		if errors.Is(err, ErrRegionNotFound) {
			cfg.respondWithError(w, http.StatusNotFound, "Region not found", nil)
			return
		}
		cfg.respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	params := struct {
		DataSource string `json:"data_source"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		cfg.respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := cfg.store.SetDataSource(context.Background(), region.ID, params.DataSource); err != nil {
		if errors.Is(err, ErrUnknownDataSource) {
			cfg.respondWithError(w, http.StatusBadRequest, "Unknown data source", nil)
			return
		}
		cfg.respondWithError(w, http.StatusInternalServerError, "Error updating data source", err)
		return
	}
	updated, _ := cfg.store.Region(region.ID)
	cfg.respondWithJSON(w, http.StatusOK, RegionResponse{Region: regionToJSON(updated)})
}

// handlerRegionName renames a region.
// Example request: PUT /api/region/name?id=<uuid> with body {"name": "Home"}
func (cfg *apiConfig) handlerRegionName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	region, err := cfg.regionFromRequest(r)
	if err != nil {
		if errors.Is(err, ErrRegionNotFound) {
			cfg.respondWithError(w, http.StatusNotFound, "Region not found", nil)
			return
		}
		cfg.respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	params := struct {
		Name string `json:"name"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		cfg.respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := cfg.store.RenameRegion(region.ID, params.Name); err != nil {
		cfg.respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	updated, _ := cfg.store.Region(region.ID)
	cfg.respondWithJSON(w, http.StatusOK, RegionResponse{Region: regionToJSON(updated)})
}

// handlerTimeline reads or replaces the active timeline selection. A PUT
// recomputes every region against the new selection before responding.
// Example requests:
//
//	GET /api/timeline
//	PUT /api/timeline with body {"mode": "range", "start": "...", "end": "..."}
func (cfg *apiConfig) handlerTimeline(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg.respondWithJSON(w, http.StatusOK, selectionToJSON(cfg.store.Selection()))
	case http.MethodPut:
		var params TimelineSelectionJSON
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			cfg.respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		sel, err := selectionFromJSON(params)
		if err != nil {
			cfg.respondWithError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		if err := cfg.store.SetTimeline(context.Background(), sel); err != nil {
			cfg.respondWithError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		cfg.respondWithJSON(w, http.StatusOK, selectionToJSON(cfg.store.Selection()))
	default:
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// handlerTimelineGrid returns the hourly grid the slider selects from.
// Example request: GET /api/timeline/grid
func (cfg *apiConfig) handlerTimelineGrid(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	grid := cfg.timelineGrid()
	if len(grid) == 0 {
		cfg.respondWithError(w, http.StatusInternalServerError, "Empty timeline grid", nil)
		return
	}
	timestamps := make([]string, 0, len(grid))
	for _, ts := range grid {
		timestamps = append(timestamps, ts.Format(time.RFC3339))
	}
	cfg.respondWithJSON(w, http.StatusOK, TimelineGridResponse{
		First:      timestamps[0],
		Last:       timestamps[len(timestamps)-1],
		StepHours:  1,
		Count:      len(grid),
		Timestamps: timestamps,
	})
}

// handlerTimelinePosition translates between slider percent and grid
// timestamp. Exactly one of the two query parameters must be present.
// Example requests:
//
//	GET /api/timeline/position?percent=50
//	GET /api/timeline/position?timestamp=2026-08-28T12:00:00Z
func (cfg *apiConfig) handlerTimelinePosition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	percentStr := r.URL.Query().Get("percent")
	timestampStr := r.URL.Query().Get("timestamp")
	grid := cfg.timelineGrid()

	switch {
	case percentStr != "" && timestampStr != "":
		cfg.respondWithError(w, http.StatusBadRequest, "Provide either percent or timestamp, not both", nil)
	case percentStr != "":
		percent, err := strconv.ParseFloat(percentStr, 64)
		if err != nil {
			cfg.respondWithError(w, http.StatusBadRequest, "Invalid percent", err)
			return
		}
		ts := positionToTimestamp(grid, percent)
		cfg.respondWithJSON(w, http.StatusOK, TimelinePositionResponse{
			Percent:   timestampToPosition(grid, ts),
			Timestamp: ts.Format(time.RFC3339),
		})
	case timestampStr != "":
		ts, err := time.Parse(time.RFC3339, timestampStr)
		if err != nil {
			cfg.respondWithError(w, http.StatusBadRequest, "Invalid timestamp", err)
			return
		}
		if !hourAligned(ts) {
			cfg.respondWithError(w, http.StatusBadRequest, "Timestamp must be hour-aligned", nil)
			return
		}
		cfg.respondWithJSON(w, http.StatusOK, TimelinePositionResponse{
			Percent:   timestampToPosition(grid, ts),
			Timestamp: ts.UTC().Format(time.RFC3339),
		})
	default:
		cfg.respondWithError(w, http.StatusBadRequest, "Missing percent or timestamp query parameter", nil)
	}
}

// handlerEvents streams store change notifications as server-sent events.
// The client re-reads the endpoints it cares about on each event.
// Example request: GET /api/events
func (cfg *apiConfig) handlerEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		cfg.respondWithError(w, http.StatusInternalServerError, "Streaming unsupported", nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, unsubscribe := cfg.notifier.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: {\"type\":%q}\n\n", event.Type, event.Type)
			flusher.Flush()
		}
	}
}

// handlerConfig exposes the runtime configuration the UI needs to render
// itself: draft bounds, timeline window, data-source catalog.
// Example request: GET /api/config
func (cfg *apiConfig) handlerConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, ConfigResponse{
		DevMode:          cfg.devMode,
		RefreshInterval:  cfg.refreshInterval.String(),
		TimelineDaysBack: cfg.timelineDaysBefore,
		TimelineDaysFwd:  cfg.timelineDaysAfter,
		MinPolygonPoints: minPolygonPoints,
		MaxPolygonPoints: maxPolygonPoints,
		DataSources:      append([]string(nil), dataSourceCatalog...),
		DefaultColor:     defaultColor,
	})
}

// handlerReset drops all regions, the active draft and the series cache.
// Registered only in dev mode.
// Example request: POST /dev/reset
func (cfg *apiConfig) handlerReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	cfg.draft.Cancel()
	if err := cfg.store.Reset(r.Context()); err != nil {
		cfg.respondWithError(w, http.StatusInternalServerError, "Error resetting state", err)
		return
	}
	cfg.logger.Debug("state reset")
	cfg.respondWithJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
