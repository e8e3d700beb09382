package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/guard"
	"github.com/frahmantamala/asset-portal/internal/session"
	"github.com/frahmantamala/asset-portal/pkg/logger"
)

// BaseHandler provides common functionality for portal handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError maps err onto the AppError taxonomy and writes it.
func (h *BaseHandler) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := internal.Classify(err)
	lg := logger.From(r.Context(), h.Logger)
	if appErr.StatusCode >= http.StatusInternalServerError {
		lg.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	} else {
		lg.WarnContext(r.Context(), "request rejected", "path", r.URL.Path, "code", appErr.Code)
	}
	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// DecodeJSON reads the request body into v.
func (h *BaseHandler) DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return internal.NewValidationError("Invalid request body", internal.ErrCodeValidationFailed).WithCause(err)
	}
	return nil
}

// IDParam parses a positive int64 chi URL parameter.
func (h *BaseHandler) IDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationFieldError(name, name+" must be a positive integer", internal.ErrCodeValidationFailed)
	}
	return id, nil
}

// Session returns the snapshot the route guard judged the request with.
func (h *BaseHandler) Session(r *http.Request) session.State {
	st, _ := guard.StateFromContext(r.Context())
	return st
}
