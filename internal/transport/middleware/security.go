package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/frahmantamala/asset-portal/internal"
)

// SecureHeaders sets the portal's security headers and, when hosts are given, rejects
// requests for any other Host.
func SecureHeaders(cfg internal.ServerConfig, production bool, logger *slog.Logger) func(http.Handler) http.Handler {
	sec := secure.New(secure.Options{
		AllowedHosts:          cfg.Hosts(),
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'",
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !production,
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sec.Process(w, r); err != nil {
				logger.WarnContext(r.Context(), "secure headers blocked request", "host", r.Host, "error", err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit caps requests per client IP per minute. A non-positive limit disables it.
func RateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			status, body := internal.ErrRateLimited.ToHTTPResponse()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(body)
		}),
	)
}
