package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	producterrors "github.com/abgdnv/gocatalog/internal/product/errors"
	"github.com/abgdnv/gocatalog/internal/platform/web"
)

// timestampLayout is ISO-8601 with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// now is replaced in tests.
var now = time.Now

// ErrorBody is the payload of the error envelope.
type ErrorBody struct {
	Name       string `json:"name"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// ErrorEnvelope wraps every error response.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// HandlerFunc is an HTTP handler that reports failures by returning them.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts h to http.HandlerFunc, sending every returned error to the error responder.
func Handle(logger *slog.Logger, h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			RespondError(logger)(w, r, err)
		}
	}
}

// RespondError returns the central error responder.
// It logs the error and writes the uniform error envelope.
func RespondError(logger *slog.Logger) web.ErrorResponder {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		appErr := producterrors.From(err)
		mLogger := loggerWithReqID(r, logger)
		if appErr.StatusCode >= http.StatusInternalServerError {
			mLogger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		} else {
			mLogger.WarnContext(r.Context(), "Request rejected", "method", r.Method, "path", r.URL.Path,
				"kind", appErr.Kind, "status", appErr.StatusCode, "error", appErr.Message)
		}
		respondJSON(w, mLogger, appErr.StatusCode, ErrorEnvelope{Error: ErrorBody{
			Name:       string(appErr.Kind),
			Message:    appErr.Message,
			StatusCode: appErr.StatusCode,
			Timestamp:  now().UTC().Format(timestampLayout),
		}})
	}
}

// NotFound returns the responder for requests that match no route.
func NotFound(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mLogger := loggerWithReqID(r, logger)
		mLogger.DebugContext(r.Context(), "Route not found", "method", r.Method, "path", r.URL.Path)
		respondJSON(w, mLogger, http.StatusNotFound, ErrorEnvelope{Error: ErrorBody{
			Name:       string(producterrors.KindNotFound),
			Message:    fmt.Sprintf("Route %s not found", r.URL.Path),
			StatusCode: http.StatusNotFound,
		}})
	}
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	// Handle nil payload
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// loggerWithReqID creates a logger with the request ID from the context.
func loggerWithReqID(r *http.Request, logger *slog.Logger) *slog.Logger {
	reqID, found := web.GetRequestID(r.Context())
	if !found {
		reqID = "unknown"
	}
	return logger.With("request_id", reqID)
}
