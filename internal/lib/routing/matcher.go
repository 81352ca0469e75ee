package routing

import (
	"context"
	"errors"
	"sort"

	"github.com/dpup/fieldgeo/server/internal/lib/geo"
)

// DefaultNearbyDistance is used for sites without their own MaxDistance (10 miles).
const DefaultNearbyDistance = 16093.4

// DefaultOnRouteThreshold is the ON_ROUTE distance used when none is configured (meters).
const DefaultOnRouteThreshold = 100.0

// siteMatcher implements the SiteMatcher interface
type siteMatcher struct {
	onRouteThreshold float64 // Distance in meters for ON_ROUTE classification
}

// NewSiteMatcher creates a SiteMatcher that classifies sites within
// thresholdMeters of the path as ON_ROUTE. A non-positive threshold falls
// back to DefaultOnRouteThreshold.
func NewSiteMatcher(thresholdMeters float64) SiteMatcher {
	if thresholdMeters <= 0 {
		thresholdMeters = DefaultOnRouteThreshold
	}
	return &siteMatcher{onRouteThreshold: thresholdMeters}
}

// ClassifySite classifies a single site against a route path
func (m *siteMatcher) ClassifySite(ctx context.Context, site Site, path []geo.Point) (ClassifiedSite, error) {
	if len(path) < 2 {
		return ClassifiedSite{}, errors.New("route must have at least 2 points")
	}

	distance, err := geo.PointToPath(site.Location, path)
	if err != nil {
		return ClassifiedSite{}, err
	}

	maxDistance := site.MaxDistance
	if maxDistance <= 0 {
		maxDistance = DefaultNearbyDistance
	}

	classification := Distant
	switch {
	case distance <= m.onRouteThreshold:
		classification = OnRoute
	case distance <= maxDistance:
		classification = Nearby
	}

	return ClassifiedSite{
		Site:            site,
		Classification:  classification,
		DistanceToRoute: distance,
	}, nil
}

// SitesForRoute returns the sites on or near the route, ON_ROUTE first, then by distance
func (m *siteMatcher) SitesForRoute(ctx context.Context, sites []Site, path []geo.Point) ([]ClassifiedSite, error) {
	var matched []ClassifiedSite

	for _, site := range sites {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		classified, err := m.ClassifySite(ctx, site, path)
		if err != nil {
			return nil, err
		}
		if classified.Classification != Distant {
			matched = append(matched, classified)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]

		// First priority: ON_ROUTE sites come first
		if a.Classification != b.Classification {
			return a.Classification == OnRoute
		}

		// Second priority: closer first
		return a.DistanceToRoute < b.DistanceToRoute
	})

	return matched, nil
}
