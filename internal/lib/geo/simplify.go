package geo

import "math"

// SegmentDistanceFunc measures how far point lies from the chord between
// lineStart and lineEnd, in meters.
type SegmentDistanceFunc func(point, lineStart, lineEnd Point) float64

// metersPerDegree is the length of one degree of arc on the sphere used by Distance.
const metersPerDegree = EarthRadiusMeters * math.Pi / 180

// collinearSlackMeters absorbs floating point noise in the distance
// functions, which otherwise reports collinear points a few nanometers off
// the chord and keeps them even at tolerance 0.
const collinearSlackMeters = 1e-6

// PlanarDistance is the perpendicular distance from point to the infinite
// line through lineStart and lineEnd, measured in a local equirectangular
// frame centred on lineStart. Simplification tolerances are meters to tens
// of meters, so the flat-earth error is negligible at that scale.
func PlanarDistance(point, lineStart, lineEnd Point) float64 {
	cosLat := math.Cos(toRadians(lineStart.Latitude))
	project := func(p Point) (x, y float64) {
		return lngDelta(lineStart.Longitude, p.Longitude) * cosLat * metersPerDegree,
			(p.Latitude - lineStart.Latitude) * metersPerDegree
	}

	px, py := project(point)
	ex, ey := project(lineEnd)

	length := math.Hypot(ex, ey)
	if length == 0 {
		return math.Hypot(px, py)
	}
	return math.Abs(ex*py-ey*px) / length
}

// GeodesicDistance is the cross-track distance from point to the great circle
// through lineStart and lineEnd. Use it for long-haul paths where the chord
// spans more than a few kilometers.
func GeodesicDistance(point, lineStart, lineEnd Point) float64 {
	return crossTrackDistance(point, lineStart, lineEnd)
}

// Simplify reduces a dense path with Douglas-Peucker using PlanarDistance.
// The first and last points are always kept; paths of two points or fewer are
// returned unchanged.
func Simplify(path []Point, toleranceMeters float64) []Point {
	return SimplifyWith(path, toleranceMeters, PlanarDistance)
}

// SimplifyWith runs Douglas-Peucker with a caller supplied distance function.
// A point is kept when its distance to the current chord is strictly greater
// than toleranceMeters (plus collinearSlackMeters); on equal maxima the
// earliest index wins.
//
// The split work is kept on an explicit stack rather than the call stack, so
// pathological inputs (thousands of nearly collinear points) cannot overflow.
func SimplifyWith(path []Point, toleranceMeters float64, distance SegmentDistanceFunc) []Point {
	if len(path) <= 2 {
		return append([]Point(nil), path...)
	}

	keep := make([]bool, len(path))
	keep[0] = true
	keep[len(path)-1] = true

	kept := 2
	stack := []int{0, len(path) - 1}

	for len(stack) > 0 {
		start := stack[len(stack)-2]
		end := stack[len(stack)-1]
		stack = stack[:len(stack)-2]

		maxDist := -1.0
		maxIndex := -1
		for i := start + 1; i < end; i++ {
			d := distance(path[i], path[start], path[end])
			if d > maxDist {
				maxDist = d
				maxIndex = i
			}
		}

		if maxIndex < 0 || !(maxDist > toleranceMeters+collinearSlackMeters) {
			continue
		}

		keep[maxIndex] = true
		kept++
		stack = append(stack, start, maxIndex, maxIndex, end)
	}

	simplified := make([]Point, 0, kept)
	for i, k := range keep {
		if k {
			simplified = append(simplified, path[i])
		}
	}
	return simplified
}
