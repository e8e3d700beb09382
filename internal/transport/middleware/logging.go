package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/asset-portal/internal"
)

const (
	filtered = "[FILTERED]"

	// bodies above this size are logged truncated; page payloads can be large
	maxLoggedBody = 4 << 10
)

// redactedKeys matches header names and JSON keys by substring, case-insensitively.
var redactedKeys = []string{
	"password",
	"token",
	"authorization",
	"secret",
	"key",
	"session",
	"credential",
	"cookie",
}

// quietPaths are polled by probes and scrapers; they are logged at debug level.
var quietPaths = map[string]bool{
	"/health":  true,
	"/ping":    true,
	"/metrics": true,
}

func LoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := internal.RequestIDFromContext(r.Context())
			quiet := quietPaths[r.URL.Path]

			attrs := []any{
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
			}
			if !quiet {
				logger.InfoContext(r.Context(), "incoming request", append(attrs,
					"query", r.URL.RawQuery,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent(),
					"headers", redactHeaders(r.Header),
					"body", redactBody(peekBody(r)),
				)...)
			}

			rec := &recorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			level := responseLevel(rec.status())
			if quiet && level == slog.LevelInfo {
				level = slog.LevelDebug
			}
			logger.Log(r.Context(), level, "response", append(attrs,
				"status_code", rec.status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", rec.size,
				"body", redactBody(rec.body.Bytes()),
			)...)
		})
	}
}

// recorder captures the status and the first maxLoggedBody bytes of the response.
type recorder struct {
	http.ResponseWriter
	code int
	size int
	body bytes.Buffer
}

func (rw *recorder) WriteHeader(code int) {
	if rw.code == 0 {
		rw.code = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recorder) Write(b []byte) (int, error) {
	if room := maxLoggedBody - rw.body.Len(); room > 0 {
		rw.body.Write(b[:min(room, len(b))])
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func (rw *recorder) status() int {
	if rw.code == 0 {
		return http.StatusOK
	}
	return rw.code
}

func responseLevel(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// peekBody reads the request body and puts it back for the handler.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	raw, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return nil
	}
	return raw
}

func redacted(name string) bool {
	lower := strings.ToLower(name)
	for _, k := range redactedKeys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func redactHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if redacted(name) {
			out[name] = filtered
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

func redactBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > maxLoggedBody {
		body = body[:maxLoggedBody]
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		if redacted(string(body)) {
			return filtered
		}
		return string(body)
	}

	out, err := json.Marshal(redactJSON(data))
	if err != nil {
		return filtered
	}
	return string(out)
}

func redactJSON(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if redacted(key) {
				out[key] = filtered
				continue
			}
			out[key] = redactJSON(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = redactJSON(item)
		}
		return out
	}
	return data
}
