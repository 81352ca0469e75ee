package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dpup/prefab/logging"
	"github.com/go-playground/validator/v10"

	"github.com/dpup/fieldgeo/server/internal/lib/geo"
)

// MessageInvalidSurface is shown instead of a zero area when a drawn surface
// cannot be measured.
const MessageInvalidSurface = "unable to compute area: redraw the surface"

// ErrDirectionsUnavailable is returned when directions are requested but no
// routing provider is configured
var ErrDirectionsUnavailable = errors.New("directions are not configured")

// requestError carries an explicit status for failures detected by handlers
type requestError struct {
	status int
	msg    string
	err    error
}

func (e *requestError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *requestError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// errorResponse is the JSON body of every failed request
type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// statusFor maps an error to an HTTP status and a client safe message
func statusFor(err error) (int, string) {
	var reqErr *requestError
	var validationErrs validator.ValidationErrors
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &reqErr):
		return reqErr.status, reqErr.msg
	case errors.As(err, &validationErrs):
		return http.StatusBadRequest, validationMessage(validationErrs)
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, "request body too large"
	case errors.Is(err, geo.ErrInvalidPolygon):
		return http.StatusUnprocessableEntity, MessageInvalidSurface
	case errors.Is(err, geo.ErrDecode),
		errors.Is(err, geo.ErrInvalidCoordinate),
		errors.Is(err, geo.ErrInvalidPrecision):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrDirectionsUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func validationMessage(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	// Provider failures are logged by the service's throttled logger
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		logging.Errorw(ctx, "Request failed", "error", err, "status", status)
	}
	writeJSON(ctx, w, status, errorResponse{Error: msg, Code: status})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Errorw(ctx, "Failed to write response", "error", err)
	}
}
