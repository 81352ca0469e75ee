package geo

import (
	"errors"
	"fmt"
	"math"
)

// Bounds is a viewport rectangle. West > East means the viewport crosses the
// antimeridian.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Contains reports whether the point is inside the bounds, edges included
func (b Bounds) Contains(p Point) bool {
	if p.Latitude < b.South || p.Latitude > b.North {
		return false
	}
	if b.West <= b.East {
		return p.Longitude >= b.West && p.Longitude <= b.East
	}
	return p.Longitude >= b.West || p.Longitude <= b.East
}

// BoundsOf returns the smallest bounds containing every point of the path
func BoundsOf(path []Point) (Bounds, error) {
	if len(path) == 0 {
		return Bounds{}, errors.New("path has no points")
	}
	if err := ValidatePath(path); err != nil {
		return Bounds{}, fmt.Errorf("failed to compute bounds: %w", err)
	}

	b := Bounds{North: -90, South: 90, East: -180, West: 180}
	for _, p := range path {
		b.North = math.Max(b.North, p.Latitude)
		b.South = math.Min(b.South, p.Latitude)
		b.East = math.Max(b.East, p.Longitude)
		b.West = math.Min(b.West, p.Longitude)
	}
	return b, nil
}

// FilterInBounds keeps the items whose location falls inside bounds. A nil
// bounds (viewport not known yet) keeps everything.
func FilterInBounds[T any](items []T, bounds *Bounds, locate func(T) Point) []T {
	if bounds == nil {
		return items
	}

	visible := make([]T, 0, len(items))
	for _, item := range items {
		if bounds.Contains(locate(item)) {
			visible = append(visible, item)
		}
	}
	return visible
}

// ClusterZoom suggests the zoom level below which markers should be clustered
func ClusterZoom(markerCount int) int {
	switch {
	case markerCount < 10:
		return 15
	case markerCount < 50:
		return 13
	case markerCount < 100:
		return 11
	case markerCount < 500:
		return 9
	default:
		return 7
	}
}
