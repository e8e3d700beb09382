package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID reuses an inbound X-Request-ID or mints one. The id travels in the context so
// backend calls made for this request carry the same value, and handlers logging through
// logger.From get it attached.
func RequestID(lg *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			ctx := internal.ContextWithRequestID(r.Context(), requestID)
			ctx = logger.Into(ctx, logger.From(ctx, lg).With("request_id", requestID))

			w.Header().Set(RequestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
