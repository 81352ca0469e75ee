package routing

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/fieldgeo/server/internal/lib/geo"
)

var crewPath = []geo.Point{
	{Latitude: 38.0675, Longitude: -120.5436}, // Angels Camp
	{Latitude: 38.0800, Longitude: -120.5300},
	{Latitude: 38.1000, Longitude: -120.5000},
	{Latitude: 38.1391, Longitude: -120.4561}, // Murphys
}

func TestSerialize(t *testing.T) {
	route, err := Serialize(crewPath, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, route.EncodedPolyline)
	assert.InDelta(t, geo.PathDistance(crewPath), route.DistanceMeters, 1e-9)
	assert.Equal(t, crewPath, route.Waypoints)
	assert.Nil(t, route.DurationSeconds)
	assert.Nil(t, route.RecordedAt)

	decoded, err := geo.Decode(route.EncodedPolyline, geo.DefaultPrecision)
	require.NoError(t, err)
	assert.Len(t, decoded, len(crewPath))
}

func TestSerialize_Metadata(t *testing.T) {
	distance := 12500.0
	duration := int32(900)
	recorded := time.Date(2025, 3, 14, 8, 30, 0, 0, time.UTC)

	route, err := Serialize(crewPath, &Metadata{
		DistanceMeters:  &distance,
		DurationSeconds: &duration,
		VehicleID:       "truck-7",
		Timestamp:       recorded,
	})
	require.NoError(t, err)

	assert.Equal(t, 12500.0, route.DistanceMeters, "metadata distance overrides the computed one")
	require.NotNil(t, route.DurationSeconds)
	assert.Equal(t, int32(900), *route.DurationSeconds)
	assert.Equal(t, "truck-7", route.VehicleID)
	require.NotNil(t, route.RecordedAt)
	assert.True(t, recorded.Equal(*route.RecordedAt))

	// Route does not alias caller memory
	duration = 1
	crewCopy := append([]geo.Point(nil), crewPath...)
	route.Waypoints[0] = geo.Point{}
	assert.Equal(t, int32(900), *route.DurationSeconds)
	assert.Equal(t, crewCopy, crewPath)
}

func TestSerialize_InvalidPath(t *testing.T) {
	_, err := Serialize([]geo.Point{{Latitude: 120, Longitude: 0}}, nil)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)
}

func TestDeserialize_PrefersWaypoints(t *testing.T) {
	route, err := Serialize(crewPath, nil)
	require.NoError(t, err)

	path, err := Deserialize(route)
	require.NoError(t, err)
	assert.Equal(t, crewPath, path, "waypoints are returned exactly, without codec rounding")
}

func TestDeserialize_DecodesCompactRoute(t *testing.T) {
	route, err := Serialize(crewPath, nil)
	require.NoError(t, err)

	path, err := Deserialize(route.Compact())
	require.NoError(t, err)
	require.Len(t, path, len(crewPath))
	for i := range path {
		assert.InDelta(t, crewPath[i].Latitude, path[i].Latitude, 0.5e-5)
		assert.InDelta(t, crewPath[i].Longitude, path[i].Longitude, 0.5e-5)
	}

	_, err = Deserialize(Route{EncodedPolyline: "_p~iF~ps|"})
	assert.ErrorIs(t, err, geo.ErrDecode)
}

func TestSerializeDeserialize_PreservesDistance(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for iter := 0; iter < 20; iter++ {
		path := make([]geo.Point, 2+rng.Intn(200))
		lat, lng := 38.0, -120.5
		for i := range path {
			lat += (rng.Float64() - 0.5) * 0.01
			lng += (rng.Float64() - 0.5) * 0.01
			path[i] = geo.Point{Latitude: lat, Longitude: lng}
		}

		route, err := Serialize(path, nil)
		require.NoError(t, err)

		restored, err := Deserialize(route.Compact())
		require.NoError(t, err)

		// Each decoded point moves at most ~0.8 m, so each leg changes by at most ~1.6 m
		tolerance := 1.6 * float64(len(path)-1)
		assert.InDelta(t, geo.PathDistance(path), geo.PathDistance(restored), tolerance)
	}
}
