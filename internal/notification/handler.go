package notification

import (
	"net/http"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Aggregator *Aggregator
}

func NewHandler(base *transport.BaseHandler, agg *Aggregator) *Handler {
	return &Handler{BaseHandler: base, Aggregator: agg}
}

type NotificationsPage struct {
	Notifications []Notification `json:"notifications"`
	Count         int            `json:"count"`
}

// ListNotifications handles GET /notifications
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	viewer := h.Session(r)
	if !viewer.Authenticated() {
		h.WriteError(w, r, internal.ErrNotAuthenticated)
		return
	}
	found := h.Aggregator.Compute(r.Context(), viewer)
	h.WriteJSON(w, http.StatusOK, NotificationsPage{Notifications: found, Count: len(found)})
}
