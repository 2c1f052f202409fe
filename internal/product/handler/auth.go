package handler

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	producterrors "github.com/abgdnv/gocatalog/internal/product/errors"
)

// APIKeyHeader carries the shared secret on write requests.
const APIKeyHeader = "x-api-key"

// APIKeyAuth rejects requests whose x-api-key header does not match apiKey.
func APIKeyAuth(apiKey string, logger *slog.Logger) func(next http.Handler) http.Handler {
	respond := RespondError(logger)
	expected := []byte(apiKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(APIKeyHeader)
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
				respond(w, r, producterrors.NewAuthentication("Invalid or missing API key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
