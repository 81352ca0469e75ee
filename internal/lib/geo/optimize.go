package geo

// OptimizeOrder orders waypoints with a greedy nearest-neighbor heuristic:
// starting at origin, repeatedly visit the closest remaining waypoint.
//
// This is O(n²) and not an exact traveling-salesman solution; the tour can be
// noticeably longer than optimal on adversarial layouts. Crews select a
// handful of stops at a time, where the heuristic answers instantly and is
// usually within a few percent of optimal. destination only anchors the final
// leg and is never reordered. The caller's slice is not modified.
func OptimizeOrder(origin, destination Point, waypoints []Point) []Point {
	order := OptimizeOrderIndices(origin, waypoints)

	optimized := make([]Point, len(order))
	for i, idx := range order {
		optimized[i] = waypoints[idx]
	}
	return optimized
}

// OptimizeOrderIndices returns the nearest-neighbor visiting order as indexes
// into waypoints. Ties go to the earliest index.
func OptimizeOrderIndices(origin Point, waypoints []Point) []int {
	remaining := make([]int, len(waypoints))
	for i := range remaining {
		remaining[i] = i
	}
	if len(waypoints) <= 1 {
		return remaining
	}

	order := make([]int, 0, len(waypoints))
	current := origin

	for len(remaining) > 0 {
		nearest := 0
		minDistance := Distance(current, waypoints[remaining[0]])
		for i := 1; i < len(remaining); i++ {
			if d := Distance(current, waypoints[remaining[i]]); d < minDistance {
				minDistance = d
				nearest = i
			}
		}

		next := remaining[nearest]
		remaining = append(remaining[:nearest], remaining[nearest+1:]...)
		order = append(order, next)
		current = waypoints[next]
	}

	return order
}

// TourDistance is the length in meters of origin → waypoints... → destination.
func TourDistance(origin, destination Point, waypoints []Point) float64 {
	tour := make([]Point, 0, len(waypoints)+2)
	tour = append(tour, origin)
	tour = append(tour, waypoints...)
	tour = append(tour, destination)
	return PathDistance(tour)
}
