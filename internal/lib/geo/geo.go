package geo

import (
	"errors"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by every distance in this package.
const EarthRadiusMeters = 6371000.0

// Distance calculates great-circle distance between two points in meters
// using the Haversine formula. It is the single distance implementation the
// rest of the server builds on.
func Distance(p1, p2 Point) float64 {
	// If points are the same, distance is 0
	if p1 == p2 {
		return 0
	}

	lat1 := toRadians(p1.Latitude)
	lat2 := toRadians(p2.Latitude)
	dlat := lat2 - lat1
	dlon := toRadians(p2.Longitude - p1.Longitude)

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)

	// Rounding can push sqrt(a) just past 1 for antipodal points.
	c := 2 * math.Asin(clampUnit(math.Sqrt(a)))

	return EarthRadiusMeters * c
}

// PathDistance sums the distance between consecutive points. Paths with fewer
// than two points have no distance.
func PathDistance(path []Point) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += Distance(path[i-1], path[i])
	}
	return total
}

// PointToPath calculates minimum distance from a point to any segment of a path
func PointToPath(point Point, path []Point) (float64, error) {
	if !point.Valid() {
		return 0, errors.New("invalid point coordinates")
	}

	if len(path) == 0 {
		return 0, errors.New("path has no points")
	}

	if len(path) == 1 {
		return Distance(point, path[0]), nil
	}

	minDistance := math.Inf(1)
	for i := 0; i < len(path)-1; i++ {
		distance := pointToSegmentDistance(point, path[i], path[i+1])
		if distance < minDistance {
			minDistance = distance
		}
	}

	return minDistance, nil
}

// pointToSegmentDistance calculates the distance from a point to a great
// circle segment, falling back to the nearest endpoint when the point's
// projection lies outside the segment.
func pointToSegmentDistance(point, segmentStart, segmentEnd Point) float64 {
	if segmentStart == segmentEnd {
		return Distance(point, segmentStart)
	}

	distanceToStart := Distance(segmentStart, point)
	bearingDelta := initialBearing(segmentStart, point) - initialBearing(segmentStart, segmentEnd)

	// Projection falls behind the segment start
	if math.Cos(bearingDelta) < 0 {
		return distanceToStart
	}

	d13 := distanceToStart / EarthRadiusMeters
	dxt := math.Asin(clampUnit(math.Sin(d13) * math.Sin(bearingDelta)))
	dat := math.Acos(clampUnit(math.Cos(d13) / math.Cos(dxt)))

	if dat*EarthRadiusMeters > Distance(segmentStart, segmentEnd) {
		return Distance(point, segmentEnd)
	}

	return math.Abs(dxt) * EarthRadiusMeters
}

// crossTrackDistance is the distance from a point to the great circle through
// lineStart and lineEnd, unbounded by the endpoints.
func crossTrackDistance(point, lineStart, lineEnd Point) float64 {
	if lineStart == lineEnd {
		return Distance(point, lineStart)
	}

	d13 := Distance(lineStart, point) / EarthRadiusMeters
	bearingDelta := initialBearing(lineStart, point) - initialBearing(lineStart, lineEnd)
	dxt := math.Asin(clampUnit(math.Sin(d13) * math.Sin(bearingDelta)))

	return math.Abs(dxt) * EarthRadiusMeters
}

// initialBearing returns the bearing in radians from p1 towards p2
func initialBearing(p1, p2 Point) float64 {
	lat1 := toRadians(p1.Latitude)
	lat2 := toRadians(p2.Latitude)
	dlon := toRadians(p2.Longitude - p1.Longitude)

	y := math.Sin(dlon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dlon)
	return math.Atan2(y, x)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// lngDelta returns to - from wrapped into (-180, 180], so a short hop across
// the antimeridian stays short.
func lngDelta(from, to float64) float64 {
	d := math.Mod(to-from, 360)
	switch {
	case d > 180:
		d -= 360
	case d <= -180:
		d += 360
	}
	return d
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
