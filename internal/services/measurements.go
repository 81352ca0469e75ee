package services

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/dpup/prefab/logging"
	"golang.org/x/sync/errgroup"

	"github.com/dpup/fieldgeo/server/internal/lib/export"
	"github.com/dpup/fieldgeo/server/internal/lib/geo"
	"github.com/dpup/fieldgeo/server/internal/metrics"
)

type measureRequest struct {
	Polygon  []geo.Point `json:"polygon" validate:"dive"`
	Simplify bool        `json:"simplify,omitempty"`
}

type measureResponse struct {
	Measurement geo.Measurement `json:"measurement"`
	Center      geo.Point       `json:"center"`
	Vertices    int             `json:"vertices"`
}

type batchMeasureRequest struct {
	Polygons [][]geo.Point `json:"polygons" validate:"required,min=1,max=500,dive,dive"`
	Simplify bool          `json:"simplify,omitempty"`
}

type batchMeasureResult struct {
	Index       int              `json:"index"`
	Measurement *geo.Measurement `json:"measurement,omitempty"`
	Error       string           `json:"error,omitempty"`
}

type batchMeasureResponse struct {
	Results []batchMeasureResult `json:"results"`
	Failed  int                  `json:"failed"`
}

// measure runs the polygon pipeline shared by the single and batch endpoints
func (s *GeoService) measure(polygon []geo.Point, simplify bool) (measureResponse, error) {
	if simplify {
		polygon = geo.SimplifyPolygon(polygon, s.cfg.Geo.PolygonToleranceFeet)
	}

	m, err := geo.Measure(polygon)
	if err != nil {
		metrics.MeasurementsTotal.WithLabelValues("invalid").Inc()
		return measureResponse{}, err
	}
	metrics.MeasurementsTotal.WithLabelValues("ok").Inc()

	center, err := geo.Center(polygon)
	if err != nil {
		return measureResponse{}, err
	}

	return measureResponse{Measurement: m, Center: center, Vertices: len(polygon)}, nil
}

func (s *GeoService) handleMeasure(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req measureRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := s.checkPathSize("polygon", req.Polygon); err != nil {
		writeError(ctx, w, err)
		return
	}

	resp, err := s.measure(req.Polygon, req.Simplify)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}

// handleMeasureBatch measures every polygon concurrently. A polygon that
// cannot be measured is reported in its own result and does not fail the
// batch.
func (s *GeoService) handleMeasureBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req batchMeasureRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	for _, polygon := range req.Polygons {
		if err := s.checkPathSize("polygon", polygon); err != nil {
			writeError(ctx, w, err)
			return
		}
	}

	results := make([]batchMeasureResult, len(req.Polygons))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Geo.BatchConcurrency)
	for i, polygon := range req.Polygons {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result := batchMeasureResult{Index: i}
			resp, err := s.measure(polygon, req.Simplify)
			switch {
			case errors.Is(err, geo.ErrInvalidPolygon):
				result.Error = MessageInvalidSurface
			case err != nil:
				return err
			default:
				result.Measurement = &resp.Measurement
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		writeError(ctx, w, err)
		return
	}

	failed := 0
	for _, result := range results {
		if result.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		logging.Infow(ctx, "Batch measurement had unmeasurable surfaces", "failed", failed, "total", len(results))
	}

	writeJSON(ctx, w, http.StatusOK, batchMeasureResponse{Results: results, Failed: failed})
}

func (s *GeoService) handleExportKML(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var doc export.Document
	if err := s.decodeRequest(r, &doc); err != nil {
		writeError(ctx, w, err)
		return
	}

	// Render fully before writing so failures still produce a JSON error
	var buf bytes.Buffer
	if err := export.WriteKML(&buf, doc); err != nil {
		writeError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	w.Header().Set("Content-Disposition", `attachment; filename="export.kml"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Errorw(ctx, "Failed to write KML export", "error", err)
	}
}
