package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// This file contains helpers shared by the HTTP handlers: request parsing
// and the translation between core types and their wire representations.

// regionToJSON converts a region snapshot to its wire form.
func regionToJSON(r Region) RegionJSON {
	return RegionJSON{
		ID:           r.ID.String(),
		Name:         r.Name,
		Boundary:     r.Boundary,
		DataSource:   r.DataSource,
		Rules:        r.Rules,
		CurrentValue: r.CurrentValue,
		CurrentColor: r.CurrentColor,
	}
}

// selectionToJSON converts a selection to its wire form. Timestamps are
// RFC3339 in UTC; only the fields relevant to the mode are populated.
func selectionToJSON(sel TimelineSelection) TimelineSelectionJSON {
	out := TimelineSelectionJSON{Mode: sel.Mode}
	switch sel.Mode {
	case TimelineModeRange:
		out.Start = sel.Start.UTC().Format(time.RFC3339)
		out.End = sel.End.UTC().Format(time.RFC3339)
	default:
		out.Instant = sel.Instant.UTC().Format(time.RFC3339)
	}
	return out
}

// selectionFromJSON parses the wire form back into a selection. Validation
// beyond timestamp syntax (mode, alignment, ordering) is the store's job.
func selectionFromJSON(j TimelineSelectionJSON) (TimelineSelection, error) {
	sel := TimelineSelection{Mode: j.Mode}
	var err error
	if j.Instant != "" {
		sel.Instant, err = time.Parse(time.RFC3339, j.Instant)
		if err != nil {
			return TimelineSelection{}, fmt.Errorf("invalid instant: %w", err)
		}
	}
	if j.Start != "" {
		sel.Start, err = time.Parse(time.RFC3339, j.Start)
		if err != nil {
			return TimelineSelection{}, fmt.Errorf("invalid start: %w", err)
		}
	}
	if j.End != "" {
		sel.End, err = time.Parse(time.RFC3339, j.End)
		if err != nil {
			return TimelineSelection{}, fmt.Errorf("invalid end: %w", err)
		}
	}
	return sel, nil
}

// regionFromRequest resolves the "id" or "name" query parameter to a region
// snapshot. Exactly one of the two must be present.
func (cfg *apiConfig) regionFromRequest(r *http.Request) (Region, error) {
	idStr := r.URL.Query().Get("id")
	name := r.URL.Query().Get("name")

	switch {
	case idStr != "" && name != "":
		return Region{}, fmt.Errorf("provide either id or name, not both")
	case idStr != "":
		id, err := uuid.Parse(idStr)
		if err != nil {
			return Region{}, fmt.Errorf("invalid region id: %w", err)
		}
		region, ok := cfg.store.Region(id)
		if !ok {
			return Region{}, ErrRegionNotFound
		}
		return region, nil
	case name != "":
		region, ok := cfg.store.RegionByName(name)
		if !ok {
			return Region{}, ErrRegionNotFound
		}
		return region, nil
	default:
		return Region{}, fmt.Errorf("missing id or name query parameter")
	}
}
