package geo

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeOrder_NearestNeighbor(t *testing.T) {
	origin := Point{Latitude: 0, Longitude: 0}
	destination := Point{Latitude: 10, Longitude: 10}
	waypoints := []Point{
		{Latitude: 1, Longitude: 1},
		{Latitude: 9, Longitude: 9},
		{Latitude: 5, Longitude: 5},
	}

	optimized := OptimizeOrder(origin, destination, waypoints)
	assert.Equal(t, []Point{
		{Latitude: 1, Longitude: 1},
		{Latitude: 5, Longitude: 5},
		{Latitude: 9, Longitude: 9},
	}, optimized)

	// Caller's slice is untouched
	assert.Equal(t, Point{Latitude: 9, Longitude: 9}, waypoints[1])
}

func TestOptimizeOrder_ShortInputs(t *testing.T) {
	origin := Point{Latitude: 0, Longitude: 0}
	destination := Point{Latitude: 1, Longitude: 1}

	assert.Empty(t, OptimizeOrder(origin, destination, nil))

	single := []Point{{Latitude: 0.5, Longitude: 0.5}}
	assert.Equal(t, single, OptimizeOrder(origin, destination, single))
}

func TestOptimizeOrderIndices_TiesGoToEarliestIndex(t *testing.T) {
	origin := Point{Latitude: 0, Longitude: 0}
	// Equidistant from the origin, north and south
	waypoints := []Point{
		{Latitude: -1, Longitude: 0},
		{Latitude: 1, Longitude: 0},
	}

	assert.Equal(t, []int{0, 1}, OptimizeOrderIndices(origin, waypoints))
}

func TestOptimizeOrder_IsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for iter := 0; iter < 25; iter++ {
		n := 1 + rng.Intn(60)
		waypoints := make([]Point, n)
		for i := range waypoints {
			waypoints[i] = Point{Latitude: 37 + rng.Float64(), Longitude: -121 + rng.Float64()}
		}
		origin := Point{Latitude: 37.5, Longitude: -120.5}

		order := OptimizeOrderIndices(origin, waypoints)
		require.Len(t, order, n)

		sorted := append([]int(nil), order...)
		sort.Ints(sorted)
		for i := range sorted {
			assert.Equal(t, i, sorted[i])
		}

		optimized := OptimizeOrder(origin, origin, waypoints)
		assert.ElementsMatch(t, waypoints, optimized)
	}
}

func TestTourDistance(t *testing.T) {
	origin := Point{Latitude: 0, Longitude: 0}
	destination := Point{Latitude: 0, Longitude: 3}
	waypoints := []Point{{Latitude: 0, Longitude: 2}, {Latitude: 0, Longitude: 1}}

	unordered := TourDistance(origin, destination, waypoints)
	ordered := TourDistance(origin, destination, OptimizeOrder(origin, destination, waypoints))

	assert.InDelta(t, PathDistance([]Point{origin, destination}), ordered, 1e-6)
	assert.Greater(t, unordered, ordered)
}
