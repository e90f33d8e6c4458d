package main

import "sync"

// This file implements the polygon drafting state machine. The Surface
// feeds it click coordinates; it accumulates them into a candidate boundary
// and decides when the polygon is complete. It never touches Surface state
// itself: every mutation returns a snapshot the caller renders from.

// Draft bounds. A polygon needs at least minPolygonPoints vertices to
// close; maxPolygonPoints forces completion so a runaway interaction can't
// accumulate points without bound.
const (
	minPolygonPoints = 3
	maxPolygonPoints = 12

	// closureThreshold is the planar distance (coordinate units) under
	// which a click counts as "back at the start".
	closureThreshold = 0.001
)

// DraftSnapshot is the complete drawing state after an operation. Points is
// always a copy, safe to hand to a renderer. When Completed is set, Polygon
// holds the finished boundary and the machine has already returned to idle.
type DraftSnapshot struct {
	Drawing   bool
	Points    []Point
	Completed bool
	Polygon   []Point
}

// PolygonDraft collects clicks into a candidate polygon. The zero value is
// idle. It is safe for concurrent use; handlers share one instance.
type PolygonDraft struct {
	mu      sync.Mutex
	drawing bool
	points  []Point
}

func NewPolygonDraft() *PolygonDraft {
	return &PolygonDraft{}
}

// Start begins a new draft. Starting while a draft is already in progress
// is a no-op that keeps the existing points; stray double-clicks on the
// draw button must not wipe work in progress.
func (d *PolygonDraft) Start() DraftSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.drawing {
		d.drawing = true
		d.points = nil
	}
	return d.snapshotLocked()
}

// AddPoint appends a click to the draft. Clicks while not drawing are
// silently ignored; an interactive tool must never error on a stray click.
//
// After appending, the draft completes when the new point lands within
// closureThreshold of the first point (with at least minPolygonPoints
// collected), or when the point count reaches maxPolygonPoints regardless
// of proximity. The closing click is kept once as the final vertex; the
// ring is implicitly closed between last and first point.
func (d *PolygonDraft) AddPoint(p Point) DraftSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.drawing {
		return d.snapshotLocked()
	}

	d.points = append(d.points, p)

	if len(d.points) >= minPolygonPoints {
		closed := pointDistance(p, d.points[0]) < closureThreshold
		if closed || len(d.points) >= maxPolygonPoints {
			polygon := d.points
			d.drawing = false
			d.points = nil
			return DraftSnapshot{Completed: true, Polygon: polygon}
		}
	}

	return d.snapshotLocked()
}

// Cancel abandons the draft and discards its points. A no-op when idle.
func (d *PolygonDraft) Cancel() DraftSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drawing = false
	d.points = nil
	return d.snapshotLocked()
}

func (d *PolygonDraft) snapshotLocked() DraftSnapshot {
	points := make([]Point, len(d.points))
	copy(points, d.points)
	return DraftSnapshot{Drawing: d.drawing, Points: points}
}
