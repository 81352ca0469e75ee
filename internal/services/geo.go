package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/dpup/prefab/logging"
	"github.com/go-playground/validator/v10"

	"github.com/dpup/fieldgeo/server/internal/cache"
	"github.com/dpup/fieldgeo/server/internal/clients/google"
	"github.com/dpup/fieldgeo/server/internal/config"
	"github.com/dpup/fieldgeo/server/internal/lib/events"
	"github.com/dpup/fieldgeo/server/internal/lib/geo"
	"github.com/dpup/fieldgeo/server/internal/lib/routing"
	"github.com/dpup/fieldgeo/server/internal/metrics"
)

const maxBodyBytes = 8 << 20

const (
	// decodeFailureQuiet is how long malformed polylines accumulate before
	// they are logged as one line
	decodeFailureQuiet = 5 * time.Second

	// providerFailureWindow limits directions failure logs to one per window
	providerFailureWindow = time.Minute
)

// DirectionsProvider computes a drivable route through stops that are
// already in visiting order. *google.Client implements it.
type DirectionsProvider interface {
	ComputeRoute(ctx context.Context, origin, destination geo.Point, intermediates []geo.Point) (*google.RouteData, error)
}

// GeoService exposes the geometry library as a JSON API under /api/v1/
type GeoService struct {
	baseCtx    context.Context
	cfg        *config.Config
	cache      *cache.Cache
	directions DirectionsProvider
	matcher    routing.SiteMatcher
	validate   *validator.Validate
	handler    http.Handler
	now        func() time.Time

	decodeFailures   *events.Batcher[string]
	providerFailures *events.Throttler[error]
}

// NewGeoService creates a new GeoService. directions may be nil, in which
// case route optimization works without provider directions. ctx supplies
// the logger for work that runs outside a request.
func NewGeoService(ctx context.Context, cfg *config.Config, cache *cache.Cache, directions DirectionsProvider) *GeoService {
	s := &GeoService{
		baseCtx:    logging.EnsureLogger(ctx),
		cfg:        cfg,
		cache:      cache,
		directions: directions,
		matcher:    routing.NewSiteMatcher(cfg.Routing.OnRouteThresholdMeters),
		validate:   newValidator(),
		now:        time.Now,
	}
	s.decodeFailures = events.NewBatcher(decodeFailureQuiet, s.logDecodeFailures)
	s.providerFailures = events.NewThrottler(providerFailureWindow, true, s.logProviderFailure)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/paths/encode", s.handleEncode)
	mux.HandleFunc("POST /api/v1/paths/decode", s.handleDecode)
	mux.HandleFunc("POST /api/v1/paths/simplify", s.handleSimplify)
	mux.HandleFunc("POST /api/v1/paths/distance", s.handleDistance)
	mux.HandleFunc("POST /api/v1/routes/optimize", s.handleOptimize)
	mux.HandleFunc("POST /api/v1/routes/serialize", s.handleSerialize)
	mux.HandleFunc("POST /api/v1/routes/deserialize", s.handleDeserialize)
	mux.HandleFunc("POST /api/v1/routes/sites", s.handleSites)
	mux.HandleFunc("POST /api/v1/measurements", s.handleMeasure)
	mux.HandleFunc("POST /api/v1/measurements/batch", s.handleMeasureBatch)
	mux.HandleFunc("POST /api/v1/export/kml", s.handleExportKML)
	s.handler = metrics.Middleware(mux)

	return s
}

// ServeHTTP implements http.Handler. Requests arriving without a scoped
// logger inherit the service's.
func (s *GeoService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if logging.FromContext(r.Context()) == nil {
		r = r.WithContext(logging.With(r.Context(), logging.FromContext(s.baseCtx)))
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	s.handler.ServeHTTP(w, r)
}

// Close delivers pending failure logs and stops their timers
func (s *GeoService) Close() {
	s.decodeFailures.Flush()
	s.providerFailures.Flush()
}

// recordDecodeFailure queues a rejected polyline for the aggregated log
func (s *GeoService) recordDecodeFailure(encoded string) {
	metrics.DecodeErrors.Inc()
	if len(encoded) > 32 {
		encoded = encoded[:32] + "..."
	}
	s.decodeFailures.Add(encoded)
}

func (s *GeoService) logDecodeFailures(samples []string) {
	logging.Warnw(s.baseCtx, "Rejected malformed polylines",
		"count", len(samples), "first", samples[0], "last", samples[len(samples)-1])
}

func (s *GeoService) logProviderFailure(err error) {
	logging.Errorw(s.baseCtx, "Directions provider failed", "error", err)
}

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeRequest parses and validates a JSON request body
func (s *GeoService) decodeRequest(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return s.validate.StructCtx(r.Context(), dst)
}

func (s *GeoService) checkPathSize(name string, points []geo.Point) error {
	if len(points) > s.cfg.Geo.MaxPathPoints {
		return badRequest("%s has %d points, the limit is %d", name, len(points), s.cfg.Geo.MaxPathPoints)
	}
	return nil
}

func (s *GeoService) precision(requested *int) int {
	if requested != nil {
		return *requested
	}
	return s.cfg.Geo.Precision
}
