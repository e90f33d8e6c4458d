package main

import "math"

// This file contains the geometry primitives used by the drawing state
// machine and the recompute pipeline. Both work on raw lat/lon values as if
// they were planar coordinates: at the neighborhood zoom levels this tool
// targets, the error against geodesic math is negligible, and it keeps the
// closure threshold and centroid trivially cheap. This is a known
// approximation, not an oversight.

// pointDistance returns the Euclidean distance between two points in
// coordinate units (degrees), not meters.
func pointDistance(a, b Point) float64 {
	dLat := a.Latitude - b.Latitude
	dLon := a.Longitude - b.Longitude
	return math.Sqrt(dLat*dLat + dLon*dLon)
}

// polygonCenter returns the arithmetic mean of the boundary points. It is
// not a true polygon centroid; it matches what the data provider is queried
// with and is stable under the point counts the drafting tool allows.
func polygonCenter(boundary []Point) Point {
	if len(boundary) == 0 {
		return Point{}
	}
	var sumLat, sumLon float64
	for _, p := range boundary {
		sumLat += p.Latitude
		sumLon += p.Longitude
	}
	n := float64(len(boundary))
	return Point{Latitude: sumLat / n, Longitude: sumLon / n}
}
