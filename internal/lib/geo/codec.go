package geo

import (
	"fmt"
	"math"

	"github.com/twpayne/go-polyline"
)

// DefaultPrecision is the number of decimal digits kept by the codec
// (about 1.1 m at the equator), matching Google's polyline format.
const DefaultPrecision = 5

// MaxPrecision bounds the scale factor so scaled coordinates stay well inside int range.
const MaxPrecision = 10

// Encode compresses a path into a polyline string. Each coordinate is scaled
// by 10^precision and delta-encoded against the previous point.
func Encode(path []Point, precision int) (string, error) {
	codec, err := newCodec(precision)
	if err != nil {
		return "", err
	}
	if err := ValidatePath(path); err != nil {
		return "", err
	}

	coords := make([][]float64, len(path))
	for i, p := range path {
		coords[i] = []float64{p.Latitude, p.Longitude}
	}

	return string(codec.EncodeCoords(nil, coords)), nil
}

// Decode expands a polyline string back into points. A truncated or otherwise
// malformed string yields a *DecodeError and no points. An empty string is an
// empty path.
func Decode(encoded string, precision int) ([]Point, error) {
	codec, err := newCodec(precision)
	if err != nil {
		return nil, err
	}
	if encoded == "" {
		return []Point{}, nil
	}

	coords, rest, err := codec.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, &DecodeError{Encoded: encoded, Err: err}
	}
	if len(rest) != 0 {
		return nil, &DecodeError{Encoded: encoded, Err: fmt.Errorf("%d trailing bytes", len(rest))}
	}

	points := make([]Point, len(coords))
	for i, coord := range coords {
		points[i] = Point{Latitude: coord[0], Longitude: coord[1]}

		// Validate decoded coordinates
		if !points[i].Valid() {
			return nil, &DecodeError{Encoded: encoded, Err: fmt.Errorf("point %d: %w", i, ErrInvalidCoordinate)}
		}
	}

	return points, nil
}

func newCodec(precision int) (polyline.Codec, error) {
	if precision < 0 || precision > MaxPrecision {
		return polyline.Codec{}, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidPrecision, precision, MaxPrecision)
	}
	return polyline.Codec{Dim: 2, Scale: math.Pow10(precision)}, nil
}
