package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dpup/fieldgeo/server/internal/lib/geo"
)

// DefaultBaseURL is the Google Routes API v2 endpoint
const DefaultBaseURL = "https://routes.googleapis.com"

const fieldMask = "routes.duration,routes.staticDuration,routes.distanceMeters,routes.polyline.encodedPolyline,routes.travelAdvisory.speedReadingIntervals"

// HTTPDoer is the subset of *http.Client used by Client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to Google Routes API v2. It is the mapping
// collaborator that turns an already optimized stop order into a drivable
// route.
type Client struct {
	apiKey     string
	httpClient HTTPDoer
	baseURL    string
}

// RouteData represents the processed route information from Google Routes API
type RouteData struct {
	DurationSeconds       int32
	StaticDurationSeconds int32
	DistanceMeters        int32
	EncodedPolyline       string
	Path                  []geo.Point
	SpeedReadings         []SpeedReading
}

// SpeedReading represents traffic speed data for route segments
type SpeedReading struct {
	StartIndex    int32
	EndIndex      int32
	SpeedCategory string // "NORMAL", "SLOW", "TRAFFIC_JAM"
}

// NewClient creates a new Google Routes API client
func NewClient(apiKey string) *Client {
	return NewClientWithHTTPDoer(apiKey, DefaultBaseURL, &http.Client{
		Timeout: 30 * time.Second,
	})
}

// NewClientWithHTTPDoer creates a client with a custom transport, used by
// tests and by callers that share an *http.Client.
func NewClientWithHTTPDoer(apiKey, baseURL string, doer HTTPDoer) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: doer,
	}
}

// ComputeRoute requests a driving route through the intermediates in the
// order given. Google's own waypoint optimization is left off because the
// order is computed locally.
func (c *Client) ComputeRoute(ctx context.Context, origin, destination geo.Point, intermediates []geo.Point) (*RouteData, error) {
	if !origin.Valid() || !destination.Valid() {
		return nil, geo.ErrInvalidCoordinate
	}
	if err := geo.ValidatePath(intermediates); err != nil {
		return nil, fmt.Errorf("invalid intermediate: %w", err)
	}

	request := computeRoutesRequest{
		Origin:                waypointFor(origin),
		Destination:           waypointFor(destination),
		TravelMode:            "DRIVE",
		RoutingPreference:     "TRAFFIC_AWARE",
		ExtraComputations:     []string{"TRAFFIC_ON_POLYLINE"},
		OptimizeWaypointOrder: false,
	}
	for _, p := range intermediates {
		request.Intermediates = append(request.Intermediates, waypointFor(p))
	}

	jsonBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/directions/v2:computeRoutes", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// The API rejects requests without a field mask
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limit exceeded (3K QPM)")
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var response computeRoutesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(response.Routes) == 0 {
		return nil, fmt.Errorf("no routes found in response")
	}

	return processRoute(response.Routes[0])
}

func processRoute(route googleRoute) (*RouteData, error) {
	durationSeconds, err := parseDuration(route.Duration)
	if err != nil {
		return nil, fmt.Errorf("failed to parse duration: %w", err)
	}

	// Static duration is optional in responses
	var staticSeconds int32
	if route.StaticDuration != "" {
		staticSeconds, err = parseDuration(route.StaticDuration)
		if err != nil {
			return nil, fmt.Errorf("failed to parse static duration: %w", err)
		}
	}

	path, err := geo.Decode(route.Polyline.EncodedPolyline, geo.DefaultPrecision)
	if err != nil {
		return nil, fmt.Errorf("failed to decode route polyline: %w", err)
	}

	var speedReadings []SpeedReading
	if route.TravelAdvisory != nil {
		for _, interval := range route.TravelAdvisory.SpeedReadingIntervals {
			speedReadings = append(speedReadings, SpeedReading{
				StartIndex:    interval.StartPolylinePointIndex,
				EndIndex:      interval.EndPolylinePointIndex,
				SpeedCategory: interval.Speed,
			})
		}
	}

	return &RouteData{
		DurationSeconds:       durationSeconds,
		StaticDurationSeconds: staticSeconds,
		DistanceMeters:        route.DistanceMeters,
		EncodedPolyline:       route.Polyline.EncodedPolyline,
		Path:                  path,
		SpeedReadings:         speedReadings,
	}, nil
}

// parseDuration parses Google's duration format like "450s" to seconds
func parseDuration(durationStr string) (int32, error) {
	if durationStr == "" {
		return 0, fmt.Errorf("empty duration string")
	}
	seconds, err := strconv.ParseFloat(strings.TrimSuffix(durationStr, "s"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", durationStr, err)
	}
	return int32(seconds), nil
}

func waypointFor(p geo.Point) waypoint {
	var w waypoint
	w.Location.LatLng.Latitude = p.Latitude
	w.Location.LatLng.Longitude = p.Longitude
	return w
}

type computeRoutesRequest struct {
	Origin                waypoint   `json:"origin"`
	Destination           waypoint   `json:"destination"`
	Intermediates         []waypoint `json:"intermediates,omitempty"`
	TravelMode            string     `json:"travelMode"`
	RoutingPreference     string     `json:"routingPreference"`
	ExtraComputations     []string   `json:"extraComputations,omitempty"`
	OptimizeWaypointOrder bool       `json:"optimizeWaypointOrder"`
}

type waypoint struct {
	Location struct {
		LatLng struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"latLng"`
	} `json:"location"`
}

type computeRoutesResponse struct {
	Routes []googleRoute `json:"routes"`
}

type googleRoute struct {
	Duration       string                `json:"duration"`
	StaticDuration string                `json:"staticDuration"`
	DistanceMeters int32                 `json:"distanceMeters"`
	Polyline       googlePolyline        `json:"polyline"`
	TravelAdvisory *googleTravelAdvisory `json:"travelAdvisory,omitempty"`
}

type googlePolyline struct {
	EncodedPolyline string `json:"encodedPolyline"`
}

type googleTravelAdvisory struct {
	SpeedReadingIntervals []googleSpeedInterval `json:"speedReadingIntervals"`
}

type googleSpeedInterval struct {
	StartPolylinePointIndex int32  `json:"startPolylinePointIndex"`
	EndPolylinePointIndex   int32  `json:"endPolylinePointIndex"`
	Speed                   string `json:"speed"`
}
