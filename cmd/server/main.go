package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"github.com/dpup/prefab"
	"github.com/dpup/prefab/logging"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dpup/fieldgeo/server/internal/cache"
	"github.com/dpup/fieldgeo/server/internal/clients/google"
	"github.com/dpup/fieldgeo/server/internal/config"
	"github.com/dpup/fieldgeo/server/internal/metrics"
	"github.com/dpup/fieldgeo/server/internal/services"
)

func main() {
	// Load configuration using Prefab's config system
	appConfig := loadConfig()

	// Background work logs through the same logger as the server
	ctx, cancel := context.WithCancel(logging.EnsureLogger(context.Background()))
	defer cancel()

	// Directions responses are cached per stop list
	cacheInstance := cache.NewCache()
	cacheInstance.StartPeriodicCleanup(ctx, appConfig.Routing.CleanupInterval)
	prometheus.MustRegister(metrics.NewCacheSizeGauge(cacheInstance.Len))

	// Directions stay off until a Google Routes API key is configured
	var directions services.DirectionsProvider
	if appConfig.Routing.DirectionsEnabled() {
		directions = google.NewClientWithHTTPDoer(
			appConfig.Routing.GoogleRoutes.APIKey,
			appConfig.Routing.GoogleRoutes.BaseURL,
			&http.Client{Timeout: appConfig.Routing.GoogleRoutes.Timeout},
		)
		log.Printf("Directions enabled via %s", appConfig.Routing.GoogleRoutes.BaseURL)
	} else {
		log.Printf("Directions disabled: no Google Routes API key configured")
	}

	geoService := services.NewGeoService(ctx, appConfig, cacheInstance, directions)

	log.Printf("Field geometry API server starting")
	log.Printf("Default polyline precision: %d", appConfig.Geo.Precision)

	// Server configuration (port, etc.) will be loaded from prefab.yaml/env vars
	server := prefab.New(
		prefab.WithContext(ctx),
		prefab.WithHTTPHandlerFunc("/api/v1/", geoService.ServeHTTP),
		prefab.WithHTTPHandlerFunc("/metrics", metrics.Handler().ServeHTTP),
		prefab.WithHTTPHandlerFunc("/", homepageHandler),
	)

	// Start the server (blocks until shutdown)
	err := server.Start()
	geoService.Close()
	if err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig overlays prefab.yaml and PF__ environment variables on the
// defaults. Sections missing from the file keep their default values.
func loadConfig() *config.Config {
	appConfig := config.DefaultConfig()

	if err := prefab.Config.Unmarshal("geo", &appConfig.Geo); err != nil {
		log.Fatalf("Failed to unmarshal geo section: %v", err)
	}

	if err := prefab.Config.Unmarshal("routing", &appConfig.Routing); err != nil {
		log.Fatalf("Failed to unmarshal routing section: %v", err)
	}

	if err := appConfig.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	return appConfig
}

// homepageHandler serves a simple HTML homepage at the server root
func homepageHandler(w http.ResponseWriter, r *http.Request) {
	// Only handle the root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	html := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>fieldgeo</title>
    <style>
        body { font-family: 'Courier New', Consolas, monospace; padding: 20px; line-height: 1.4; }
        .header { font-weight: bold; }
    </style>
</head>
<body>
<pre>
<span class="header">fieldgeo</span>

Geometry API for field-service crews: paths, routes and surface measurements.

<span class="header">Paths:</span>
  POST /api/v1/paths/encode          - Encode coordinates as a polyline
  POST /api/v1/paths/decode          - Decode a polyline
  POST /api/v1/paths/simplify        - Douglas-Peucker simplification
  POST /api/v1/paths/distance        - Path length

<span class="header">Routes:</span>
  POST /api/v1/routes/optimize       - Order stops, optionally with directions
  POST /api/v1/routes/serialize      - Build a storable route record
  POST /api/v1/routes/deserialize    - Restore a route's path
  POST /api/v1/routes/sites          - Job sites on or near a route

<span class="header">Surfaces:</span>
  POST /api/v1/measurements          - Area, perimeter and rectangle detection
  POST /api/v1/measurements/batch    - Measure many surfaces
  POST /api/v1/export/kml            - Export routes and surfaces as KML

<span class="header">Operations:</span>
  GET  /metrics                      - Prometheus metrics
</pre>
</body>
</html>`

	if _, err := fmt.Fprint(w, html); err != nil {
		slog.Error("Failed to write homepage HTML", "error", err)
	}
}
