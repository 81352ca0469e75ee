package geo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zigzag(n int) []Point {
	path := make([]Point, n)
	for i := range path {
		path[i] = Point{
			Latitude:  38.0 + float64(i)*0.001,
			Longitude: -78.0 + float64(i%2)*0.001,
		}
	}
	return path
}

func TestSimplify_ShortPathsUnchanged(t *testing.T) {
	assert.Empty(t, Simplify(nil, 10))

	one := []Point{angelsCamp}
	assert.Equal(t, one, Simplify(one, 10))

	two := []Point{angelsCamp, murphys}
	assert.Equal(t, two, Simplify(two, 10))
}

func TestSimplify_CollinearPoints(t *testing.T) {
	meridian := make([]Point, 10)
	diagonal := make([]Point, 10)
	for i := range meridian {
		meridian[i] = Point{Latitude: 38.0 + float64(i)*0.001, Longitude: -78.0}
		diagonal[i] = Point{Latitude: 38.0 + float64(i)*0.001, Longitude: -78.0 + float64(i)*0.001}
	}

	for _, tolerance := range []float64{0, 0.01, 1, 100} {
		simplified := Simplify(meridian, tolerance)
		assert.Equal(t, []Point{meridian[0], meridian[9]}, simplified)

		simplified = Simplify(diagonal, tolerance)
		assert.Equal(t, []Point{diagonal[0], diagonal[9]}, simplified)
	}
}

func TestSimplify_AcrossAntimeridian(t *testing.T) {
	// A straight diagonal that steps over 180°
	path := []Point{
		{Latitude: 0.000, Longitude: 179.998},
		{Latitude: 0.001, Longitude: 179.999},
		{Latitude: 0.002, Longitude: 180},
		{Latitude: 0.003, Longitude: -179.999},
		{Latitude: 0.004, Longitude: -179.998},
	}

	assert.Less(t, PlanarDistance(path[3], path[0], path[4]), 0.01)
	assert.Equal(t, []Point{path[0], path[4]}, Simplify(path, 1))

	// A real detour on the far side is still kept
	detour := append([]Point(nil), path...)
	detour[3] = Point{Latitude: 0.0045, Longitude: -179.999}
	simplified := Simplify(detour, 1)
	assert.Contains(t, simplified, detour[3])
	assert.Equal(t, detour[0], simplified[0])
	assert.Equal(t, detour[4], simplified[len(simplified)-1])
}

func TestSimplify_ZeroToleranceKeepsNonCollinear(t *testing.T) {
	path := zigzag(12)
	assert.Equal(t, path, Simplify(path, 0))
}

func TestSimplify_InfiniteTolerance(t *testing.T) {
	path := zigzag(25)
	assert.Equal(t, []Point{path[0], path[24]}, Simplify(path, math.Inf(1)))
}

func TestSimplify_KeepsSignificantDeviation(t *testing.T) {
	// A 111 m detour in the middle of a straight run
	path := []Point{
		{Latitude: 38.000, Longitude: -78.000},
		{Latitude: 38.001, Longitude: -78.000},
		{Latitude: 38.002, Longitude: -77.999},
		{Latitude: 38.003, Longitude: -78.000},
		{Latitude: 38.004, Longitude: -78.000},
	}

	simplified := Simplify(path, 50)
	assert.Equal(t, []Point{path[0], path[2], path[4]}, simplified)

	simplified = Simplify(path, 200)
	assert.Equal(t, []Point{path[0], path[4]}, simplified)
}

func TestSimplify_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 30; iter++ {
		n := 3 + rng.Intn(300)
		path := make([]Point, n)
		lat, lng := 38.0, -78.0
		for i := range path {
			lat += (rng.Float64() - 0.3) * 0.0005
			lng += (rng.Float64() - 0.3) * 0.0005
			path[i] = Point{Latitude: lat, Longitude: lng}
		}
		original := append([]Point(nil), path...)

		tolerance := rng.Float64() * 30
		simplified := Simplify(path, tolerance)

		require.GreaterOrEqual(t, len(simplified), 2)
		assert.LessOrEqual(t, len(simplified), len(path))
		assert.Equal(t, path[0], simplified[0])
		assert.Equal(t, path[n-1], simplified[len(simplified)-1])
		assert.Equal(t, original, path, "input must not be mutated")
	}
}

func TestSimplifyWith_TieBreaksOnEarliestIndex(t *testing.T) {
	path := []Point{
		{Latitude: 0, Longitude: 0},
		{Latitude: 1, Longitude: 0},
		{Latitude: 2, Longitude: 0},
		{Latitude: 3, Longitude: 0},
		{Latitude: 4, Longitude: 0},
	}

	// Points 1 and 2 tie against the full chord and are flat against any other.
	distance := func(p, start, end Point) float64 {
		if start == path[0] && end == path[4] && (p == path[1] || p == path[2]) {
			return 10
		}
		return 0
	}

	simplified := SimplifyWith(path, 5, distance)
	assert.Equal(t, []Point{path[0], path[1], path[4]}, simplified)
}

func TestSimplifyWith_Geodesic(t *testing.T) {
	// Meridians are great circles, so interior points sit on the chord
	meridian := []Point{
		{Latitude: 10, Longitude: 20},
		{Latitude: 20, Longitude: 20},
		{Latitude: 30, Longitude: 20},
		{Latitude: 40, Longitude: 20},
	}
	assert.Equal(t, []Point{meridian[0], meridian[3]}, SimplifyWith(meridian, 10, GeodesicDistance))

	// A long-haul detour well off the great circle is kept
	detour := []Point{
		{Latitude: 10, Longitude: 20},
		{Latitude: 25, Longitude: 22},
		{Latitude: 40, Longitude: 20},
	}
	assert.Equal(t, detour, SimplifyWith(detour, 1000, GeodesicDistance))
}

func TestPlanarAndGeodesicAgreeAtShortRange(t *testing.T) {
	start := Point{Latitude: 38.0, Longitude: -78.0}
	end := Point{Latitude: 38.0, Longitude: -77.99}
	point := Point{Latitude: 38.0003, Longitude: -77.995}

	planar := PlanarDistance(point, start, end)
	geodesic := GeodesicDistance(point, start, end)
	assert.InDelta(t, 33.4, planar, 0.5)
	assert.InEpsilon(t, geodesic, planar, 0.01)
}

func TestSimplify_LargeInput(t *testing.T) {
	// Twenty thousand points on a gentle arc; every point deviates, so every
	// point survives a zero tolerance without exhausting the stack.
	n := 20000
	path := make([]Point, n)
	for i := range path {
		x := float64(i) / float64(n)
		path[i] = Point{Latitude: 38.0 + x*0.5, Longitude: -78.0 + 0.01*math.Sin(x*math.Pi)}
	}

	simplified := Simplify(path, 0)
	assert.Equal(t, path[0], simplified[0])
	assert.Equal(t, path[n-1], simplified[len(simplified)-1])

	simplified = Simplify(path, 5)
	assert.Less(t, len(simplified), n/10)
}
