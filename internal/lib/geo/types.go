package geo

import (
	"errors"
	"fmt"
)

// Point represents a geographic coordinate in WGS84 decimal degrees
type Point struct {
	Latitude  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// Measurement is derived from a polygon and recomputed whenever its vertices change.
type Measurement struct {
	AreaSqFt      float64  `json:"area_sq_ft"`
	PerimeterFt   float64  `json:"perimeter_ft"`
	LengthFt      *float64 `json:"length_ft,omitempty"`
	WidthFt       *float64 `json:"width_ft,omitempty"`
	IsRectangular bool     `json:"is_rectangular"`
}

// Dimensions of a surface that was recognized as a rectangle
type Dimensions struct {
	LengthFt float64 `json:"length_ft"`
	WidthFt  float64 `json:"width_ft"`
}

var (
	// ErrInvalidCoordinate is returned for latitudes outside [-90, 90] or longitudes outside [-180, 180].
	ErrInvalidCoordinate = errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")

	// ErrInvalidPrecision is returned for codec precisions outside [0, MaxPrecision].
	ErrInvalidPrecision = errors.New("invalid polyline precision")

	// ErrDecode matches every *DecodeError via errors.Is.
	ErrDecode = errors.New("malformed encoded polyline")

	// ErrInvalidPolygon matches every *InvalidPolygonError via errors.Is.
	ErrInvalidPolygon = errors.New("invalid polygon")
)

// DecodeError reports a malformed encoded polyline. No partial path is ever
// returned alongside it.
type DecodeError struct {
	Encoded string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode polyline %q: %v", truncate(e.Encoded, 32), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// InvalidPolygonError reports a polygon that cannot be measured: fewer than
// three vertices, or vertices that enclose no area.
type InvalidPolygonError struct {
	Vertices int
	Reason   string
}

func (e *InvalidPolygonError) Error() string {
	return fmt.Sprintf("invalid polygon with %d vertices: %s", e.Vertices, e.Reason)
}

func (e *InvalidPolygonError) Is(target error) bool { return target == ErrInvalidPolygon }

// NewPoint creates a Point from latitude and longitude values with validation
func NewPoint(latitude, longitude float64) (Point, error) {
	point := Point{Latitude: latitude, Longitude: longitude}
	if !point.Valid() {
		return Point{}, ErrInvalidCoordinate
	}
	return point, nil
}

// Valid reports whether the point lies within WGS84 ranges
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// ValidatePath returns ErrInvalidCoordinate, annotated with the offending
// index, for the first out-of-range point.
func ValidatePath(path []Point) error {
	for i, p := range path {
		if !p.Valid() {
			return fmt.Errorf("point %d (%f, %f): %w", i, p.Latitude, p.Longitude, ErrInvalidCoordinate)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
