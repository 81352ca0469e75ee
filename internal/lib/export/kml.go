// Package export renders routes and measured surfaces as KML documents for
// mapping tools.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/twpayne/go-kml/v2"

	"github.com/dpup/fieldgeo/server/internal/lib/geo"
)

// RouteFeature is a crew route rendered as a LineString placemark
type RouteFeature struct {
	Name string      `json:"name"`
	Path []geo.Point `json:"path" validate:"min=2,dive"`
}

// SurfaceFeature is a measured surface rendered as a Polygon placemark
type SurfaceFeature struct {
	Name    string      `json:"name"`
	Polygon []geo.Point `json:"polygon" validate:"min=3,dive"`
}

// Document collects the features written by WriteKML
type Document struct {
	Name     string           `json:"name"`
	Routes   []RouteFeature   `json:"routes" validate:"dive"`
	Surfaces []SurfaceFeature `json:"surfaces" validate:"dive"`
}

// WriteKML writes doc as an indented KML document. Surfaces that cannot be
// measured fail the whole export rather than being written without an area.
func WriteKML(w io.Writer, doc Document) error {
	children := []kml.Element{kml.Name(documentName(doc))}

	for i, route := range doc.Routes {
		if len(route.Path) < 2 {
			return fmt.Errorf("route %d: a route needs at least 2 points", i)
		}
		if err := geo.ValidatePath(route.Path); err != nil {
			return fmt.Errorf("route %d: %w", i, err)
		}
		children = append(children, kml.Placemark(
			kml.Name(featureName(route.Name, "Route", i)),
			kml.Description("Distance: "+geo.FormatDistance(geo.PathDistance(route.Path))),
			kml.LineString(
				kml.Tessellate(true),
				kml.Coordinates(coordinates(route.Path, false)...),
			),
		))
	}

	for i, surface := range doc.Surfaces {
		if err := geo.ValidatePath(surface.Polygon); err != nil {
			return fmt.Errorf("surface %d: %w", i, err)
		}
		m, err := geo.Measure(surface.Polygon)
		if err != nil {
			return fmt.Errorf("surface %d: %w", i, err)
		}
		children = append(children, kml.Placemark(
			kml.Name(featureName(surface.Name, "Surface", i)),
			kml.Description(surfaceDescription(m)),
			kml.Polygon(
				kml.OuterBoundaryIs(
					kml.LinearRing(
						kml.Coordinates(coordinates(surface.Polygon, true)...),
					),
				),
			),
		))
	}

	return kml.KML(kml.Document(children...)).WriteIndent(w, "", "  ")
}

// coordinates converts points to KML order (lon, lat), optionally closing
// the ring as KML requires for LinearRing.
func coordinates(points []geo.Point, closeRing bool) []kml.Coordinate {
	coords := make([]kml.Coordinate, 0, len(points)+1)
	for _, p := range points {
		coords = append(coords, kml.Coordinate{Lon: p.Longitude, Lat: p.Latitude})
	}
	if closeRing && len(points) > 0 && points[0] != points[len(points)-1] {
		coords = append(coords, coords[0])
	}
	return coords
}

func surfaceDescription(m geo.Measurement) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Area: %.0f sq ft\nPerimeter: %.0f ft", m.AreaSqFt, m.PerimeterFt)
	if m.IsRectangular && m.LengthFt != nil && m.WidthFt != nil {
		fmt.Fprintf(&sb, "\nDimensions: %.0f ft x %.0f ft", *m.LengthFt, *m.WidthFt)
	}
	return sb.String()
}

func documentName(doc Document) string {
	if doc.Name != "" {
		return doc.Name
	}
	return "Field export"
}

func featureName(name, kind string, index int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("%s %d", kind, index+1)
}
