package main

import (
	"fmt"
	"math"
	"time"
)

// This file implements the temporal index: the discretized timeline grid a
// slider selects from, the percent<->timestamp translation the slider
// contract requires, and the exact-lookup / range-average queries that map
// a selection onto a region's hourly series. All functions are pure.

// buildTimelineGrid produces the ordered hourly timestamps from
// center-before to center+after inclusive, stepped by step. The grid is
// regenerated wholesale whenever the window configuration changes; it is
// never patched incrementally.
func buildTimelineGrid(center time.Time, before, after, step time.Duration) TimelineGrid {
	start := center.Add(-before)
	end := center.Add(after)

	var grid TimelineGrid
	for current := start; !current.After(end); current = current.Add(step) {
		grid = append(grid, current)
	}
	return grid
}

// defaultTimelineGrid is the window the UI shows: daysBefore/daysAfter
// around the start of today (UTC), hourly.
func defaultTimelineGrid(now time.Time, daysBefore, daysAfter int) TimelineGrid {
	center := now.UTC().Truncate(24 * time.Hour)
	return buildTimelineGrid(center,
		time.Duration(daysBefore)*24*time.Hour,
		time.Duration(daysAfter)*24*time.Hour,
		time.Hour,
	)
}

// positionToTimestamp maps a slider position in [0,100] to the nearest grid
// entry. Positions outside the range clamp to the grid edges. This is the
// discretization law every slider UI must follow; no other date math is
// allowed on the client side.
func positionToTimestamp(grid TimelineGrid, percent float64) time.Time {
	if len(grid) == 0 {
		return time.Time{}
	}
	index := int(math.Round(percent / 100 * float64(len(grid)-1)))
	if index < 0 {
		index = 0
	}
	if index > len(grid)-1 {
		index = len(grid) - 1
	}
	return grid[index]
}

// timestampToPosition is the inverse mapping. A timestamp not present in
// the grid yields position 0; that fallback is inherited from the source
// behavior and deliberately kept. The HTTP layer rejects non-hour-aligned
// timestamps before they reach this point.
func timestampToPosition(grid TimelineGrid, ts time.Time) float64 {
	if len(grid) < 2 {
		return 0
	}
	for i, entry := range grid {
		if entry.Equal(ts) {
			return float64(i) / float64(len(grid)-1) * 100
		}
	}
	return 0
}

// sampleAt returns the sample whose timestamp equals instant exactly. There
// is no interpolation; a missing hour is reported as absent even when the
// adjacent hours exist.
func sampleAt(series TimeSeries, instant time.Time) (float64, bool) {
	for _, s := range series.Samples {
		if s.Timestamp.Equal(instant) {
			return s.Value, true
		}
	}
	return 0, false
}

// averageInRange returns the arithmetic mean of all samples with
// start <= timestamp <= end. Samples outside the series' span are simply
// excluded; an empty intersection is reported as absent, not an error.
func averageInRange(series TimeSeries, start, end time.Time) (float64, bool) {
	var sum float64
	var count int
	for _, s := range series.Samples {
		if s.Timestamp.Before(start) || s.Timestamp.After(end) {
			continue
		}
		sum += s.Value
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// selectionValue resolves a selection against a series: exact lookup in
// single mode, inclusive average in range mode. Absence propagates as
// "skip the color update", never as an error.
func selectionValue(series TimeSeries, sel TimelineSelection) (float64, bool) {
	if sel.Mode == TimelineModeRange {
		return averageInRange(series, sel.Start, sel.End)
	}
	return sampleAt(series, sel.Instant)
}

// selectionDateSpan collapses a selection to the calendar-day bounds the
// data provider is queried with. The provider buckets requests by day but
// returns hourly points, so the span always covers the selected hours.
func selectionDateSpan(sel TimelineSelection) (time.Time, time.Time) {
	if sel.Mode == TimelineModeRange {
		return sel.Start.Truncate(24 * time.Hour), sel.End.Truncate(24 * time.Hour)
	}
	day := sel.Instant.Truncate(24 * time.Hour)
	return day, day
}

// validateSelection enforces the selection invariants: a known mode,
// hour-aligned timestamps, and start <= end for ranges.
func validateSelection(sel TimelineSelection) error {
	switch sel.Mode {
	case TimelineModeSingle:
		if sel.Instant.IsZero() {
			return fmt.Errorf("single selection requires an instant")
		}
		if !hourAligned(sel.Instant) {
			return fmt.Errorf("instant must be hour-aligned")
		}
	case TimelineModeRange:
		if sel.Start.IsZero() || sel.End.IsZero() {
			return fmt.Errorf("range selection requires start and end")
		}
		if !hourAligned(sel.Start) || !hourAligned(sel.End) {
			return fmt.Errorf("range bounds must be hour-aligned")
		}
		if sel.End.Before(sel.Start) {
			return fmt.Errorf("range end must not precede start")
		}
	default:
		return fmt.Errorf("unknown timeline mode %q", sel.Mode)
	}
	return nil
}

func hourAligned(ts time.Time) bool {
	return ts.Equal(ts.Truncate(time.Hour))
}
