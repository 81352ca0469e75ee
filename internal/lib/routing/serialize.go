package routing

import (
	"fmt"

	"github.com/dpup/fieldgeo/server/internal/lib/geo"
)

// Serialize bundles a path into a Route: the encoded polyline, its distance
// (unless metadata supplies one) and any caller metadata. The waypoints are
// copied into the record so Deserialize can skip the lossy decode.
func Serialize(path []geo.Point, metadata *Metadata) (Route, error) {
	encoded, err := geo.Encode(path, geo.DefaultPrecision)
	if err != nil {
		return Route{}, fmt.Errorf("failed to encode route: %w", err)
	}

	route := Route{
		EncodedPolyline: encoded,
		DistanceMeters:  geo.PathDistance(path),
	}
	if len(path) > 0 {
		route.Waypoints = append([]geo.Point(nil), path...)
	}

	if metadata != nil {
		if metadata.DistanceMeters != nil {
			route.DistanceMeters = *metadata.DistanceMeters
		}
		if metadata.DurationSeconds != nil {
			duration := *metadata.DurationSeconds
			route.DurationSeconds = &duration
		}
		route.VehicleID = metadata.VehicleID
		if !metadata.Timestamp.IsZero() {
			recordedAt := metadata.Timestamp
			route.RecordedAt = &recordedAt
		}
	}

	return route, nil
}

// Deserialize restores the path of a Route, preferring the stored waypoints
// and falling back to decoding the polyline.
func Deserialize(route Route) ([]geo.Point, error) {
	if len(route.Waypoints) > 0 {
		return append([]geo.Point(nil), route.Waypoints...), nil
	}

	points, err := geo.Decode(route.EncodedPolyline, geo.DefaultPrecision)
	if err != nil {
		return nil, fmt.Errorf("failed to decode route: %w", err)
	}
	return points, nil
}

// Compact returns a copy of the route without stored waypoints, for callers
// that only need to persist the encoded form.
func (r Route) Compact() Route {
	r.Waypoints = nil
	return r
}
