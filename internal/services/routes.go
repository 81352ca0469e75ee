package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dpup/prefab/logging"

	"github.com/dpup/fieldgeo/server/internal/cache"
	"github.com/dpup/fieldgeo/server/internal/clients/google"
	"github.com/dpup/fieldgeo/server/internal/lib/geo"
	"github.com/dpup/fieldgeo/server/internal/lib/routing"
	"github.com/dpup/fieldgeo/server/internal/metrics"
)

type optimizeRequest struct {
	Origin      *geo.Point  `json:"origin" validate:"required"`
	Destination *geo.Point  `json:"destination" validate:"required"`
	Waypoints   []geo.Point `json:"waypoints" validate:"dive"`
	Directions  bool        `json:"directions,omitempty"`
}

type optimizeResponse struct {
	Waypoints              []geo.Point    `json:"waypoints"`
	Order                  []int          `json:"order"`
	DistanceMeters         float64        `json:"distance_meters"`
	OriginalDistanceMeters float64        `json:"original_distance_meters"`
	FormattedDistance      string         `json:"formatted_distance"`
	Route                  *routing.Route `json:"route,omitempty"`
	FormattedDuration      string         `json:"formatted_duration,omitempty"`
}

type serializeRequest struct {
	Points          []geo.Point `json:"points" validate:"min=1,dive"`
	DistanceMeters  *float64    `json:"distance_meters,omitempty" validate:"omitempty,gte=0"`
	DurationSeconds *int32      `json:"duration_seconds,omitempty" validate:"omitempty,gte=0"`
	VehicleID       string      `json:"vehicle_id,omitempty"`
	Timestamp       *time.Time  `json:"timestamp,omitempty"`
	Compact         bool        `json:"compact,omitempty"`
}

type deserializeRequest struct {
	Route routing.Route `json:"route"`
}

type sitesRequest struct {
	Path   []geo.Point    `json:"path" validate:"min=2,dive"`
	Sites  []routing.Site `json:"sites" validate:"dive"`
	Bounds *geo.Bounds    `json:"bounds,omitempty"`
}

type sitesResponse struct {
	Sites       []routing.ClassifiedSite `json:"sites"`
	ClusterZoom int                      `json:"cluster_zoom"`
}

func (s *GeoService) handleOptimize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req optimizeRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := s.checkPathSize("waypoints", req.Waypoints); err != nil {
		writeError(ctx, w, err)
		return
	}
	metrics.PathPoints.WithLabelValues("optimize").Observe(float64(len(req.Waypoints)))

	origin, destination := *req.Origin, *req.Destination
	order := geo.OptimizeOrderIndices(origin, req.Waypoints)
	optimized := make([]geo.Point, len(order))
	for i, idx := range order {
		optimized[i] = req.Waypoints[idx]
	}

	originalDistance := geo.TourDistance(origin, destination, req.Waypoints)
	optimizedDistance := geo.TourDistance(origin, destination, optimized)
	if saved := originalDistance - optimizedDistance; saved > 0 {
		metrics.OptimizationSavings.Observe(saved)
	}

	resp := optimizeResponse{
		Waypoints:              optimized,
		Order:                  order,
		DistanceMeters:         optimizedDistance,
		OriginalDistanceMeters: originalDistance,
		FormattedDistance:      geo.FormatDistance(optimizedDistance),
	}

	if req.Directions {
		data, err := s.computeDirections(ctx, origin, destination, optimized)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		distance := float64(data.DistanceMeters)
		duration := data.DurationSeconds
		route, err := routing.Serialize(data.Path, &routing.Metadata{
			DistanceMeters:  &distance,
			DurationSeconds: &duration,
			Timestamp:       s.now(),
		})
		if err != nil {
			writeError(ctx, w, fmt.Errorf("failed to serialize directions: %w", err))
			return
		}
		compact := route.Compact()
		resp.Route = &compact
		resp.FormattedDistance = geo.FormatDistance(distance)
		resp.FormattedDuration = geo.FormatDuration(int(duration))
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}

// computeDirections asks the provider for a drivable route through the
// ordered stops, reusing cached answers for identical stop lists.
func (s *GeoService) computeDirections(ctx context.Context, origin, destination geo.Point, ordered []geo.Point) (*google.RouteData, error) {
	if s.directions == nil {
		return nil, ErrDirectionsUnavailable
	}

	stops := make([]geo.Point, 0, len(ordered)+2)
	stops = append(stops, origin)
	stops = append(stops, ordered...)
	stops = append(stops, destination)

	cacheKey, err := cache.ContentKey("directions", stops)
	if err != nil {
		return nil, err
	}

	var cached google.RouteData
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		logging.Errorw(ctx, "Directions cache read failed", "error", err, "key", cacheKey)
	}
	if found {
		metrics.CacheHits.WithLabelValues("directions").Inc()
		return &cached, nil
	}
	metrics.CacheMisses.WithLabelValues("directions").Inc()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Routing.GoogleRoutes.Timeout)
	defer cancel()

	data, err := s.directions.ComputeRoute(ctx, origin, destination, ordered)
	if err != nil {
		metrics.DirectionsRequests.WithLabelValues("error").Inc()
		s.providerFailures.Call(err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("directions request: %w", err)
		}
		return nil, &requestError{status: http.StatusBadGateway, msg: "directions provider failed", err: err}
	}
	metrics.DirectionsRequests.WithLabelValues("ok").Inc()

	if err := s.cache.Set(cacheKey, data, s.cfg.Routing.CacheTTL, "google_routes"); err != nil {
		logging.Errorw(ctx, "Failed to cache directions", "error", err, "key", cacheKey)
	}
	return data, nil
}

func (s *GeoService) handleSerialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req serializeRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := s.checkPathSize("points", req.Points); err != nil {
		writeError(ctx, w, err)
		return
	}

	metadata := &routing.Metadata{
		DistanceMeters:  req.DistanceMeters,
		DurationSeconds: req.DurationSeconds,
		VehicleID:       req.VehicleID,
	}
	if req.Timestamp != nil {
		metadata.Timestamp = *req.Timestamp
	}

	route, err := routing.Serialize(req.Points, metadata)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if req.Compact {
		route = route.Compact()
	}

	writeJSON(ctx, w, http.StatusOK, route)
}

func (s *GeoService) handleDeserialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req deserializeRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	points, err := routing.Deserialize(req.Route)
	if err != nil {
		if errors.Is(err, geo.ErrDecode) {
			s.recordDecodeFailure(req.Route.EncodedPolyline)
		}
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, newPathResponse(points))
}

func (s *GeoService) handleSites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req sitesRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := s.checkPathSize("path", req.Path); err != nil {
		writeError(ctx, w, err)
		return
	}

	visible := geo.FilterInBounds(req.Sites, req.Bounds, func(site routing.Site) geo.Point {
		return site.Location
	})

	matched, err := s.matcher.SitesForRoute(ctx, visible, req.Path)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if matched == nil {
		matched = []routing.ClassifiedSite{}
	}

	writeJSON(ctx, w, http.StatusOK, sitesResponse{
		Sites:       matched,
		ClusterZoom: geo.ClusterZoom(len(matched)),
	})
}
