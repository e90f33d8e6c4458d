package main

import (
	"time"

	"github.com/google/uuid"
)

// Point is a geographic coordinate pair. Range validation is the caller's
// responsibility; the core treats points as opaque planar coordinates.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ColorRule classifies a numeric value into a display color. A rule belongs
// to exactly one region; the order rules are stored in only matters for
// breaking ties between equal thresholds during evaluation.
type ColorRule struct {
	ID        string  `json:"id"`
	Operator  string  `json:"operator"`
	Threshold float64 `json:"threshold"`
	Color     string  `json:"color"`
}

// Region is a user-drawn polygon with an associated data source and color
// rules. CurrentValue and CurrentColor are both absent until the first
// successful recompute; a provider failure sets CurrentColor to the default
// token while leaving CurrentValue nil.
type Region struct {
	ID           uuid.UUID
	Name         string
	Boundary     []Point
	DataSource   string
	Rules        []ColorRule
	CurrentValue *float64
	CurrentColor string
}

// Timeline selection modes.
const (
	TimelineModeSingle = "single"
	TimelineModeRange  = "range"
)

// TimelineSelection is either a single hour-aligned instant or an inclusive
// hour-aligned range. Instant is set in single mode, Start/End in range mode.
type TimelineSelection struct {
	Mode    string
	Instant time.Time
	Start   time.Time
	End     time.Time
}

// Sample is one hourly reading of the signal.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// TimeSeries is an hourly, strictly increasing sequence of samples for one
// region's centroid. A refetch supersedes the whole series, never merges.
type TimeSeries struct {
	LocationKey string   `json:"location_key"`
	Samples     []Sample `json:"samples"`
}

// TimelineGrid is the fixed, regenerable set of hourly timestamps a slider
// can select from. Derived data; regenerated wholesale, never patched.
type TimelineGrid []time.Time

type RegionJSON struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Boundary     []Point     `json:"boundary"`
	DataSource   string      `json:"data_source"`
	Rules        []ColorRule `json:"rules"`
	CurrentValue *float64    `json:"current_value,omitempty"`
	CurrentColor string      `json:"current_color,omitempty"`
}

type RegionsResponse struct {
	Regions []RegionJSON `json:"regions"`
}

type RegionResponse struct {
	Region RegionJSON `json:"region"`
}

type DraftResponse struct {
	Drawing   bool        `json:"drawing"`
	Points    []Point     `json:"points"`
	Completed bool        `json:"completed"`
	Region    *RegionJSON `json:"region,omitempty"`
}

type TimelineSelectionJSON struct {
	Mode    string `json:"mode"`
	Instant string `json:"instant,omitempty"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
}

type TimelineGridResponse struct {
	First      string   `json:"first"`
	Last       string   `json:"last"`
	StepHours  int      `json:"step_hours"`
	Count      int      `json:"count"`
	Timestamps []string `json:"timestamps"`
}

type TimelinePositionResponse struct {
	Percent   float64 `json:"percent"`
	Timestamp string  `json:"timestamp"`
}

type ConfigResponse struct {
	DevMode          bool     `json:"dev_mode"`
	RefreshInterval  string   `json:"refresh_interval"`
	TimelineDaysBack int      `json:"timeline_days_before"`
	TimelineDaysFwd  int      `json:"timeline_days_after"`
	MinPolygonPoints int      `json:"min_polygon_points"`
	MaxPolygonPoints int      `json:"max_polygon_points"`
	DataSources      []string `json:"data_sources"`
	DefaultColor     string   `json:"default_color"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
