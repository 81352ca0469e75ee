package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/fieldgeo/server/internal/lib/geo"
)

var hwy4 = []geo.Point{
	{Latitude: 38.0675, Longitude: -120.5436}, // Angels Camp
	{Latitude: 38.1391, Longitude: -120.4561}, // Murphys
}

// Roughly a 100 ft x 50 ft driveway
var driveway = []geo.Point{
	{Latitude: 38.0675, Longitude: -120.5436},
	{Latitude: 38.0675, Longitude: -120.5432514},
	{Latitude: 38.06763736, Longitude: -120.5432514},
	{Latitude: 38.06763736, Longitude: -120.5436},
}

func TestWriteKML(t *testing.T) {
	var buf bytes.Buffer
	err := WriteKML(&buf, Document{
		Name:     "Tuesday crew",
		Routes:   []RouteFeature{{Name: "Hwy 4", Path: hwy4}},
		Surfaces: []SurfaceFeature{{Polygon: driveway}},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<kml")
	assert.Contains(t, out, "<name>Tuesday crew</name>")
	assert.Contains(t, out, "<name>Hwy 4</name>")
	assert.Contains(t, out, "<name>Surface 1</name>", "unnamed features get a positional name")
	assert.Contains(t, out, "<LineString>")
	assert.Contains(t, out, "<Polygon>")
	assert.Contains(t, out, "<LinearRing>")
	assert.Contains(t, out, "Distance: ")
	assert.Contains(t, out, " mi")
	assert.Contains(t, out, "Area: ")
	assert.Contains(t, out, "Dimensions: ")
	assert.Equal(t, 2, strings.Count(out, "<Placemark>"))
}

func TestWriteKML_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteKML(&buf, Document{}))
	assert.Contains(t, buf.String(), "<name>Field export</name>")
	assert.NotContains(t, buf.String(), "<Placemark>")
}

func TestWriteKML_InvalidFeatures(t *testing.T) {
	var buf bytes.Buffer

	err := WriteKML(&buf, Document{Routes: []RouteFeature{{Path: hwy4[:1]}}})
	assert.Error(t, err)

	err = WriteKML(&buf, Document{Surfaces: []SurfaceFeature{{Polygon: []geo.Point{
		{Latitude: 38.0, Longitude: -120.0},
		{Latitude: 38.1, Longitude: -120.0},
		{Latitude: 38.2, Longitude: -120.0},
	}}}})
	assert.ErrorIs(t, err, geo.ErrInvalidPolygon, "collinear surfaces have no area")

	err = WriteKML(&buf, Document{Routes: []RouteFeature{{Path: []geo.Point{{Latitude: 91}, {}}}}})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)
}

func TestCoordinates_ClosesRing(t *testing.T) {
	coords := coordinates(driveway, true)
	require.Len(t, coords, len(driveway)+1)
	assert.Equal(t, coords[0], coords[len(coords)-1])
	assert.Equal(t, -120.5436, coords[0].Lon)
	assert.Equal(t, 38.0675, coords[0].Lat)

	closed := append(append([]geo.Point(nil), driveway...), driveway[0])
	assert.Len(t, coordinates(closed, true), len(closed), "already closed rings are not closed twice")
	assert.Len(t, coordinates(hwy4, false), len(hwy4))
}
