package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config represents the complete server configuration. The server loads the
// geo and routing sections from prefab.yaml (or PF__ environment variables)
// over DefaultConfig. Listener settings belong to prefab's own server
// section.
type Config struct {
	Geo     GeoConfig     `yaml:"geo"`
	Routing RoutingConfig `yaml:"routing"`
}

// GeoConfig holds defaults for the geometry endpoints
type GeoConfig struct {
	// Precision is the polyline codec precision used when a request omits one
	Precision int `yaml:"precision" validate:"gte=0,lte=10"`

	// SimplifyToleranceMeters is the Douglas-Peucker tolerance used when a
	// request omits one
	SimplifyToleranceMeters float64 `yaml:"simplify_tolerance_meters" validate:"gte=0"`

	// PolygonToleranceFeet drops polygon vertices closer than this to their
	// predecessor before measuring
	PolygonToleranceFeet float64 `yaml:"polygon_tolerance_feet" validate:"gte=0"`

	MaxPathPoints    int `yaml:"max_path_points" validate:"gt=0"`
	BatchConcurrency int `yaml:"batch_concurrency" validate:"gt=0"`
}

// RoutingConfig holds route optimization and directions settings
type RoutingConfig struct {
	GoogleRoutes GoogleConfig `yaml:"google_routes"`

	CacheTTL        time.Duration `yaml:"cache_ttl" validate:"gt=0"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" validate:"gt=0"`

	// OnRouteThresholdMeters is the distance within which a job site is
	// considered to be on a crew's route
	OnRouteThresholdMeters float64 `yaml:"on_route_threshold_meters" validate:"gt=0"`
}

// GoogleConfig holds Google Routes API settings. Directions are disabled
// when APIKey is empty.
type GoogleConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url" validate:"omitempty,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// DirectionsEnabled reports whether a Google Routes API key is configured
func (c RoutingConfig) DirectionsEnabled() bool {
	return c.GoogleRoutes.APIKey != ""
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Geo: GeoConfig{
			Precision:               5,
			SimplifyToleranceMeters: 10,
			PolygonToleranceFeet:    5,
			MaxPathPoints:           10000,
			BatchConcurrency:        8,
		},
		Routing: RoutingConfig{
			GoogleRoutes: GoogleConfig{
				BaseURL: "https://routes.googleapis.com",
				Timeout: 30 * time.Second,
			},
			CacheTTL:               15 * time.Minute,
			CleanupInterval:        5 * time.Minute,
			OnRouteThresholdMeters: 100,
		},
	}
}

// Validate checks value ranges after the file and environment overlays
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
