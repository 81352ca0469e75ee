package services

import (
	"errors"
	"net/http"

	"github.com/dpup/fieldgeo/server/internal/lib/geo"
	"github.com/dpup/fieldgeo/server/internal/metrics"
)

type encodeRequest struct {
	Points    []geo.Point `json:"points" validate:"dive"`
	Precision *int        `json:"precision,omitempty" validate:"omitempty,gte=0,lte=10"`
}

type encodeResponse struct {
	EncodedPolyline string `json:"encoded_polyline"`
	Precision       int    `json:"precision"`
	Count           int    `json:"count"`
}

type decodeRequest struct {
	EncodedPolyline string `json:"encoded_polyline"`
	Precision       *int   `json:"precision,omitempty" validate:"omitempty,gte=0,lte=10"`
}

type pathResponse struct {
	Points         []geo.Point `json:"points"`
	Count          int         `json:"count"`
	DistanceMeters float64     `json:"distance_meters"`
	Bounds         *geo.Bounds `json:"bounds,omitempty"`
}

type simplifyRequest struct {
	Points          []geo.Point `json:"points" validate:"dive"`
	ToleranceMeters *float64    `json:"tolerance_meters,omitempty" validate:"omitempty,gte=0"`
	Method          string      `json:"method,omitempty" validate:"omitempty,oneof=planar geodesic"`
}

type simplifyResponse struct {
	Points          []geo.Point `json:"points"`
	EncodedPolyline string      `json:"encoded_polyline"`
	OriginalCount   int         `json:"original_count"`
	SimplifiedCount int         `json:"simplified_count"`
}

type distanceRequest struct {
	Points []geo.Point `json:"points" validate:"dive"`
}

type distanceResponse struct {
	DistanceMeters float64 `json:"distance_meters"`
	Formatted      string  `json:"formatted"`
}

func (s *GeoService) handleEncode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req encodeRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := s.checkPathSize("points", req.Points); err != nil {
		writeError(ctx, w, err)
		return
	}
	metrics.PathPoints.WithLabelValues("encode").Observe(float64(len(req.Points)))

	precision := s.precision(req.Precision)
	encoded, err := geo.Encode(req.Points, precision)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, encodeResponse{
		EncodedPolyline: encoded,
		Precision:       precision,
		Count:           len(req.Points),
	})
}

func (s *GeoService) handleDecode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req decodeRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	points, err := geo.Decode(req.EncodedPolyline, s.precision(req.Precision))
	if err != nil {
		if errors.Is(err, geo.ErrDecode) {
			s.recordDecodeFailure(req.EncodedPolyline)
		}
		writeError(ctx, w, err)
		return
	}
	metrics.PathPoints.WithLabelValues("decode").Observe(float64(len(points)))

	writeJSON(ctx, w, http.StatusOK, newPathResponse(points))
}

func (s *GeoService) handleSimplify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req simplifyRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := s.checkPathSize("points", req.Points); err != nil {
		writeError(ctx, w, err)
		return
	}
	metrics.PathPoints.WithLabelValues("simplify").Observe(float64(len(req.Points)))

	tolerance := s.cfg.Geo.SimplifyToleranceMeters
	if req.ToleranceMeters != nil {
		tolerance = *req.ToleranceMeters
	}

	distanceFn := geo.PlanarDistance
	if req.Method == "geodesic" {
		distanceFn = geo.GeodesicDistance
	}
	simplified := geo.SimplifyWith(req.Points, tolerance, distanceFn)

	encoded, err := geo.Encode(simplified, s.cfg.Geo.Precision)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if len(req.Points) > 0 {
		metrics.SimplifyReduction.Observe(1 - float64(len(simplified))/float64(len(req.Points)))
	}

	writeJSON(ctx, w, http.StatusOK, simplifyResponse{
		Points:          orEmpty(simplified),
		EncodedPolyline: encoded,
		OriginalCount:   len(req.Points),
		SimplifiedCount: len(simplified),
	})
}

func (s *GeoService) handleDistance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req distanceRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := s.checkPathSize("points", req.Points); err != nil {
		writeError(ctx, w, err)
		return
	}

	meters := geo.PathDistance(req.Points)
	writeJSON(ctx, w, http.StatusOK, distanceResponse{
		DistanceMeters: meters,
		Formatted:      geo.FormatDistance(meters),
	})
}

// newPathResponse describes a decoded path, with the viewport that fits it
// when it has any points
func newPathResponse(points []geo.Point) pathResponse {
	resp := pathResponse{
		Points:         orEmpty(points),
		Count:          len(points),
		DistanceMeters: geo.PathDistance(points),
	}
	if bounds, err := geo.BoundsOf(points); err == nil {
		resp.Bounds = &bounds
	}
	return resp
}

// orEmpty keeps empty paths rendered as [] rather than null
func orEmpty(points []geo.Point) []geo.Point {
	if points == nil {
		return []geo.Point{}
	}
	return points
}
