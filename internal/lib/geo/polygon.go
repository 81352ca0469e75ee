package geo

import (
	"fmt"
	"math"
)

const (
	// FeetPerDegree is the length of one degree of latitude. One degree of
	// longitude is FeetPerDegree × cos(reference latitude).
	FeetPerDegree = 364000.0

	// FeetPerMeter converts routing distances to display units.
	FeetPerMeter = 3.28084

	// RectangleEdgeTolerance is the largest relative difference allowed
	// between opposite edges of a rectangle: |a-b| / max(a,b). It decides
	// whether a job site is billed as length × width, so it is deliberately
	// loose enough for hand-drawn outlines but rejects trapezoids.
	RectangleEdgeTolerance = 0.10

	// RectangleAngleTolerance is the largest |cos θ| allowed at each corner,
	// i.e. corners between roughly 84.3° and 95.7°.
	RectangleAngleTolerance = 0.10

	// straightTurnDegrees: vertices turning less than this are treated as
	// points along an edge rather than corners.
	straightTurnDegrees = 10.0

	// degenerateAreaRatio flags polygons whose area is negligible relative
	// to the square of their perimeter (collinear or coincident vertices).
	degenerateAreaRatio = 1e-9

	// coincidentFeet is the distance under which two vertices are the same corner.
	coincidentFeet = 1e-6
)

type planarPoint struct {
	x, y float64
}

func (p planarPoint) sub(q planarPoint) planarPoint { return planarPoint{p.x - q.x, p.y - q.y} }
func (p planarPoint) dot(q planarPoint) float64     { return p.x*q.x + p.y*q.y }
func (p planarPoint) norm() float64                 { return math.Hypot(p.x, p.y) }

// Area returns the enclosed area in square feet. Winding order does not matter.
func Area(polygon []Point) (float64, error) {
	pts, err := projectPolygon(polygon)
	if err != nil {
		return 0, err
	}
	return shoelaceArea(pts), nil
}

// Perimeter returns the length of all edges, including the closing edge, in feet.
func Perimeter(polygon []Point) (float64, error) {
	pts, err := projectPolygon(polygon)
	if err != nil {
		return 0, err
	}
	return ringLength(pts), nil
}

// RectangularDimensions infers length and width when the polygon reduces to
// four corners with matching opposite edges and near-right angles. It returns
// nil dimensions, and no error, for valid polygons that are not rectangles.
func RectangularDimensions(polygon []Point) (*Dimensions, error) {
	pts, err := projectPolygon(polygon)
	if err != nil {
		return nil, err
	}
	return rectangleDimensions(pts), nil
}

// Measure computes area, perimeter and, when the shape is rectangular, its
// length and width. Degenerate polygons are an error and never a zero area.
func Measure(polygon []Point) (Measurement, error) {
	pts, err := projectPolygon(polygon)
	if err != nil {
		return Measurement{}, err
	}

	m := Measurement{
		AreaSqFt:    shoelaceArea(pts),
		PerimeterFt: ringLength(pts),
	}
	if dims := rectangleDimensions(pts); dims != nil {
		m.IsRectangular = true
		m.LengthFt = &dims.LengthFt
		m.WidthFt = &dims.WidthFt
	}
	return m, nil
}

// SimplifyPolygon drops vertices closer than toleranceFeet to the previously
// kept vertex. The first and last vertices are always kept, and the original
// vertices are returned if thinning would leave fewer than three.
func SimplifyPolygon(polygon []Point, toleranceFeet float64) []Point {
	if len(polygon) <= 3 {
		return append([]Point(nil), polygon...)
	}

	simplified := []Point{polygon[0]}
	for i := 1; i < len(polygon)-1; i++ {
		last := simplified[len(simplified)-1]
		if Distance(last, polygon[i])*FeetPerMeter > toleranceFeet {
			simplified = append(simplified, polygon[i])
		}
	}
	simplified = append(simplified, polygon[len(polygon)-1])

	if len(simplified) < 3 {
		return append([]Point(nil), polygon...)
	}
	return simplified
}

// Center returns the vertex mean, used to anchor a surface label on the map.
func Center(vertices []Point) (Point, error) {
	if len(vertices) == 0 {
		return Point{}, &InvalidPolygonError{Vertices: 0, Reason: "no vertices"}
	}

	// Longitudes are averaged as offsets from the first vertex so surfaces
	// straddling the antimeridian stay centred on it.
	first := vertices[0].Longitude
	var lat, dLng float64
	for _, v := range vertices {
		lat += v.Latitude
		dLng += lngDelta(first, v.Longitude)
	}
	n := float64(len(vertices))
	return Point{Latitude: lat / n, Longitude: lngDelta(0, first+dLng/n)}, nil
}

// projectPolygon validates the polygon and maps it into a local feet frame
// anchored at the first vertex, using the mean latitude as reference.
func projectPolygon(polygon []Point) ([]planarPoint, error) {
	if len(polygon) < 3 {
		return nil, &InvalidPolygonError{Vertices: len(polygon), Reason: "at least 3 vertices are required"}
	}

	refLat := 0.0
	for i, v := range polygon {
		if !v.Valid() {
			return nil, &InvalidPolygonError{
				Vertices: len(polygon),
				Reason:   fmt.Sprintf("vertex %d (%f, %f) is out of range", i, v.Latitude, v.Longitude),
			}
		}
		refLat += v.Latitude
	}
	refLat /= float64(len(polygon))

	feetPerLngDegree := FeetPerDegree * math.Cos(toRadians(refLat))
	origin := polygon[0]

	pts := make([]planarPoint, len(polygon))
	for i, v := range polygon {
		pts[i] = planarPoint{
			x: lngDelta(origin.Longitude, v.Longitude) * feetPerLngDegree,
			y: (v.Latitude - origin.Latitude) * FeetPerDegree,
		}
	}

	perimeter := ringLength(pts)
	if shoelaceArea(pts) <= degenerateAreaRatio*perimeter*perimeter {
		return nil, &InvalidPolygonError{Vertices: len(polygon), Reason: "vertices are collinear or coincident and enclose no area"}
	}

	return pts, nil
}

func shoelaceArea(pts []planarPoint) float64 {
	sum := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].x*pts[j].y - pts[j].x*pts[i].y
	}
	return math.Abs(sum) / 2
}

func ringLength(pts []planarPoint) float64 {
	length := 0.0
	for i := range pts {
		length += pts[(i+1)%len(pts)].sub(pts[i]).norm()
	}
	return length
}

func rectangleDimensions(pts []planarPoint) *Dimensions {
	corners := dominantCorners(pts)
	if len(corners) != 4 {
		return nil
	}

	var sides [4]float64
	for i := range corners {
		sides[i] = corners[(i+1)%4].sub(corners[i]).norm()
	}
	if !edgesAgree(sides[0], sides[2]) || !edgesAgree(sides[1], sides[3]) {
		return nil
	}

	for i := range corners {
		u := corners[(i+3)%4].sub(corners[i])
		v := corners[(i+1)%4].sub(corners[i])
		if math.Abs(u.dot(v))/(u.norm()*v.norm()) > RectangleAngleTolerance {
			return nil
		}
	}

	a := (sides[0] + sides[2]) / 2
	b := (sides[1] + sides[3]) / 2
	return &Dimensions{LengthFt: math.Max(a, b), WidthFt: math.Min(a, b)}
}

func edgesAgree(a, b float64) bool {
	longer := math.Max(a, b)
	if longer == 0 {
		return false
	}
	return math.Abs(a-b)/longer <= RectangleEdgeTolerance
}

// dominantCorners removes repeated vertices (including an explicit closing
// vertex) and vertices where the outline runs nearly straight.
func dominantCorners(pts []planarPoint) []planarPoint {
	corners := make([]planarPoint, 0, len(pts))
	for _, p := range pts {
		if len(corners) > 0 && p.sub(corners[len(corners)-1]).norm() < coincidentFeet {
			continue
		}
		corners = append(corners, p)
	}
	for len(corners) > 1 && corners[len(corners)-1].sub(corners[0]).norm() < coincidentFeet {
		corners = corners[:len(corners)-1]
	}

	straight := math.Cos(toRadians(straightTurnDegrees))
	for removed := true; removed && len(corners) > 3; {
		removed = false
		for i := range corners {
			prev := corners[(i+len(corners)-1)%len(corners)]
			next := corners[(i+1)%len(corners)]
			in := corners[i].sub(prev)
			out := next.sub(corners[i])
			if in.dot(out)/(in.norm()*out.norm()) > straight {
				corners = append(corners[:i], corners[i+1:]...)
				removed = true
				break
			}
		}
	}

	return corners
}
