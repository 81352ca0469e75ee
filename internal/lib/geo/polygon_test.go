package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var siteOrigin = Point{Latitude: 38.0, Longitude: -78.0}

// offset moves a point by feet north and east using the measurement frame
func offset(base Point, northFt, eastFt float64) Point {
	return Point{
		Latitude:  base.Latitude + northFt/FeetPerDegree,
		Longitude: base.Longitude + eastFt/(FeetPerDegree*math.Cos(toRadians(base.Latitude))),
	}
}

// rectangle returns a counter-clockwise axis-aligned rectangle
func rectangle(base Point, eastFt, northFt float64) []Point {
	return []Point{
		base,
		offset(base, 0, eastFt),
		offset(base, northFt, eastFt),
		offset(base, northFt, 0),
	}
}

func reversed(points []Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

func TestMeasure_Square(t *testing.T) {
	square := rectangle(siteOrigin, 50, 50)

	m, err := Measure(square)
	require.NoError(t, err)

	assert.InEpsilon(t, 2500, m.AreaSqFt, 0.01)
	assert.InEpsilon(t, 200, m.PerimeterFt, 0.01)
	assert.True(t, m.IsRectangular)
	require.NotNil(t, m.LengthFt)
	require.NotNil(t, m.WidthFt)
	assert.InEpsilon(t, 50, *m.LengthFt, 0.01)
	assert.InEpsilon(t, 50, *m.WidthFt, 0.01)
}

func TestRectangularDimensions_Rectangle(t *testing.T) {
	rect := rectangle(siteOrigin, 100, 50)

	dims, err := RectangularDimensions(rect)
	require.NoError(t, err)
	require.NotNil(t, dims)
	assert.InEpsilon(t, 100, dims.LengthFt, 0.01)
	assert.InEpsilon(t, 50, dims.WidthFt, 0.01)

	// Longer side running north-south
	dims, err = RectangularDimensions(rectangle(siteOrigin, 50, 100))
	require.NoError(t, err)
	require.NotNil(t, dims)
	assert.InEpsilon(t, 100, dims.LengthFt, 0.01)
	assert.InEpsilon(t, 50, dims.WidthFt, 0.01)
}

func TestRectangularDimensions_ReducibleOutlines(t *testing.T) {
	rect := rectangle(siteOrigin, 100, 50)

	// Explicitly closed ring
	closed := append(append([]Point(nil), rect...), rect[0])
	dims, err := RectangularDimensions(closed)
	require.NoError(t, err)
	require.NotNil(t, dims)
	assert.InEpsilon(t, 100, dims.LengthFt, 0.01)

	// Extra vertices dropped along the edges
	traced := []Point{
		rect[0],
		offset(siteOrigin, 0, 50),
		rect[1],
		offset(siteOrigin, 25, 100),
		rect[2],
		offset(siteOrigin, 50.5, 40),
		rect[3],
	}
	dims, err = RectangularDimensions(traced)
	require.NoError(t, err)
	require.NotNil(t, dims)
	assert.InEpsilon(t, 100, dims.LengthFt, 0.02)
	assert.InEpsilon(t, 50, dims.WidthFt, 0.02)

	// Slightly hand-drawn: edges within a few percent, corners near square
	sketch := []Point{
		siteOrigin,
		offset(siteOrigin, 1, 102),
		offset(siteOrigin, 50, 100),
		offset(siteOrigin, 48, -1),
	}
	dims, err = RectangularDimensions(sketch)
	require.NoError(t, err)
	assert.NotNil(t, dims)
}

func TestRectangularDimensions_NotRectangular(t *testing.T) {
	tests := []struct {
		name    string
		polygon []Point
	}{
		{
			name:    "triangle",
			polygon: []Point{siteOrigin, offset(siteOrigin, 0, 100), offset(siteOrigin, 50, 50)},
		},
		{
			name: "trapezoid",
			polygon: []Point{
				siteOrigin,
				offset(siteOrigin, 0, 100),
				offset(siteOrigin, 50, 80),
				offset(siteOrigin, 50, 20),
			},
		},
		{
			name: "parallelogram",
			polygon: []Point{
				siteOrigin,
				offset(siteOrigin, 0, 100),
				offset(siteOrigin, 50, 150),
				offset(siteOrigin, 50, 50),
			},
		},
		{
			name: "pentagon",
			polygon: []Point{
				siteOrigin,
				offset(siteOrigin, 0, 100),
				offset(siteOrigin, 60, 100),
				offset(siteOrigin, 90, 50),
				offset(siteOrigin, 60, 0),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dims, err := RectangularDimensions(tt.polygon)
			require.NoError(t, err)
			assert.Nil(t, dims)

			m, err := Measure(tt.polygon)
			require.NoError(t, err)
			assert.False(t, m.IsRectangular)
			assert.Nil(t, m.LengthFt)
			assert.Nil(t, m.WidthFt)
			assert.Greater(t, m.AreaSqFt, 0.0)
		})
	}
}

func TestArea_WindingInvariant(t *testing.T) {
	polygons := [][]Point{
		rectangle(siteOrigin, 100, 50),
		{siteOrigin, offset(siteOrigin, 0, 100), offset(siteOrigin, 50, 50)},
		{
			siteOrigin,
			offset(siteOrigin, 0, 120),
			offset(siteOrigin, 40, 120),
			offset(siteOrigin, 40, 60),
			offset(siteOrigin, 90, 60),
			offset(siteOrigin, 90, 0),
		},
	}

	for _, polygon := range polygons {
		ccw, err := Area(polygon)
		require.NoError(t, err)
		cw, err := Area(reversed(polygon))
		require.NoError(t, err)
		assert.InDelta(t, ccw, cw, 1e-6)
	}
}

func TestArea_KnownShapes(t *testing.T) {
	triangle := []Point{siteOrigin, offset(siteOrigin, 0, 100), offset(siteOrigin, 50, 50)}
	area, err := Area(triangle)
	require.NoError(t, err)
	assert.InEpsilon(t, 2500, area, 0.01)

	// L-shaped lot: 120x40 plus 60x50
	lShape := []Point{
		siteOrigin,
		offset(siteOrigin, 0, 120),
		offset(siteOrigin, 40, 120),
		offset(siteOrigin, 40, 60),
		offset(siteOrigin, 90, 60),
		offset(siteOrigin, 90, 0),
	}
	area, err = Area(lShape)
	require.NoError(t, err)
	assert.InEpsilon(t, 120*40+60*50, area, 0.01)

	perimeter, err := Perimeter(lShape)
	require.NoError(t, err)
	assert.InEpsilon(t, 2*(120+90), perimeter, 0.01)
}

func TestMeasure_DegenerateInput(t *testing.T) {
	tests := []struct {
		name    string
		polygon []Point
	}{
		{name: "empty", polygon: nil},
		{name: "single vertex", polygon: []Point{siteOrigin}},
		{name: "two vertices", polygon: []Point{siteOrigin, offset(siteOrigin, 10, 10)}},
		{name: "collinear", polygon: []Point{siteOrigin, offset(siteOrigin, 10, 10), offset(siteOrigin, 20, 20), offset(siteOrigin, 30, 30)}},
		{name: "coincident", polygon: []Point{siteOrigin, siteOrigin, siteOrigin}},
		{name: "out of range", polygon: []Point{siteOrigin, {Latitude: 95, Longitude: 0}, offset(siteOrigin, 20, 0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Measure(tt.polygon)
			var polygonErr *InvalidPolygonError
			require.True(t, errors.As(err, &polygonErr), "expected InvalidPolygonError, got %v", err)
			assert.Equal(t, len(tt.polygon), polygonErr.Vertices)
			assert.ErrorIs(t, err, ErrInvalidPolygon)

			_, err = Area(tt.polygon)
			assert.ErrorIs(t, err, ErrInvalidPolygon)
			_, err = Perimeter(tt.polygon)
			assert.ErrorIs(t, err, ErrInvalidPolygon)
			_, err = RectangularDimensions(tt.polygon)
			assert.ErrorIs(t, err, ErrInvalidPolygon)
		})
	}
}

func TestSimplifyPolygon(t *testing.T) {
	rect := rectangle(siteOrigin, 100, 50)
	noisy := []Point{
		rect[0],
		offset(siteOrigin, 0, 2), // within 5 ft of the first corner
		rect[1],
		rect[2],
		offset(siteOrigin, 50, 3),
		rect[3],
	}

	simplified := SimplifyPolygon(noisy, 5)
	assert.Equal(t, []Point{rect[0], rect[1], rect[2], offset(siteOrigin, 50, 3), rect[3]}, simplified)

	// Never below three vertices
	tiny := []Point{siteOrigin, offset(siteOrigin, 0, 1), offset(siteOrigin, 1, 1), offset(siteOrigin, 1, 0)}
	assert.Equal(t, tiny, SimplifyPolygon(tiny, 5))

	triangle := rect[:3]
	assert.Equal(t, triangle, SimplifyPolygon(triangle, 1000))
}

func TestMeasure_AcrossAntimeridian(t *testing.T) {
	// About 72.8 ft east-west by 36.4 ft north-south, straddling 180°
	polygon := []Point{
		{Latitude: 0, Longitude: 179.9999},
		{Latitude: 0, Longitude: -179.9999},
		{Latitude: 0.0001, Longitude: -179.9999},
		{Latitude: 0.0001, Longitude: 179.9999},
	}

	m, err := Measure(polygon)
	require.NoError(t, err)
	assert.InDelta(t, 2650, m.AreaSqFt, 1)
	assert.InDelta(t, 218.4, m.PerimeterFt, 0.1)
	require.True(t, m.IsRectangular)
	assert.InDelta(t, 72.8, *m.LengthFt, 0.01)
	assert.InDelta(t, 36.4, *m.WidthFt, 0.01)

	center, err := Center(polygon)
	require.NoError(t, err)
	assert.InDelta(t, 0.00005, center.Latitude, 1e-9)
	assert.InDelta(t, 180, math.Abs(center.Longitude), 1e-9)
}

func TestCenter(t *testing.T) {
	center, err := Center([]Point{{Latitude: 0, Longitude: 0}, {Latitude: 2, Longitude: 4}})
	require.NoError(t, err)
	assert.Equal(t, Point{Latitude: 1, Longitude: 2}, center)

	_, err = Center(nil)
	assert.ErrorIs(t, err, ErrInvalidPolygon)
}
