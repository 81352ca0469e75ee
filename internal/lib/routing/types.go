package routing

import (
	"context"
	"time"

	"github.com/dpup/fieldgeo/server/internal/lib/geo"
)

// Route is the storable form of a finalized path. A Route is never edited;
// re-serializing a path produces a new Route that supersedes the old one.
type Route struct {
	EncodedPolyline string      `json:"encoded_polyline"`
	DistanceMeters  float64     `json:"distance_meters"`
	DurationSeconds *int32      `json:"duration_seconds,omitempty"`
	VehicleID       string      `json:"vehicle_id,omitempty"`
	RecordedAt      *time.Time  `json:"recorded_at,omitempty"`
	Waypoints       []geo.Point `json:"waypoints,omitempty" validate:"dive"`
}

// Metadata is caller supplied information stored alongside an encoded path
type Metadata struct {
	// DistanceMeters overrides the computed path distance, e.g. with the
	// driving distance reported by the directions provider.
	DistanceMeters  *float64
	DurationSeconds *int32
	VehicleID       string
	Timestamp       time.Time
}

// SiteClassification represents the relationship between a job site and a crew route
type SiteClassification string

const (
	OnRoute SiteClassification = "on_route" // within the matcher threshold
	Nearby  SiteClassification = "nearby"   // < site MaxDistance
	Distant SiteClassification = "distant"  // beyond every threshold
)

// Site is a job site that may be visited along a route
type Site struct {
	ID          string    `json:"id" validate:"required"`
	Name        string    `json:"name"`
	Location    geo.Point `json:"location"`
	MaxDistance float64   `json:"max_distance" validate:"gte=0"` // Distance threshold for "nearby" classification (meters)
}

// ClassifiedSite represents a site after route classification
type ClassifiedSite struct {
	Site
	Classification  SiteClassification `json:"classification"`
	DistanceToRoute float64            `json:"distance_to_route"`
}

// SiteMatcher classifies job sites against route geometry
type SiteMatcher interface {
	// Classify a single site against a route path
	ClassifySite(ctx context.Context, site Site, path []geo.Point) (ClassifiedSite, error)

	// Classify many sites and return the ones on or near the route, closest first
	SitesForRoute(ctx context.Context, sites []Site, path []geo.Point) ([]ClassifiedSite, error)
}

