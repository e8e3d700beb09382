package asset

import (
	"net/http"

	"github.com/frahmantamala/asset-portal/internal/core/datamodel/asset"
	"github.com/frahmantamala/asset-portal/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(base *transport.BaseHandler, svc *Service) *Handler {
	return &Handler{BaseHandler: base, Service: svc}
}

type AssetsPage struct {
	Assets   []asset.Asset  `json:"assets"`
	Statuses []asset.Status `json:"statuses"`
}

type statusRequest struct {
	Status asset.Status `json:"status"`
}

// ListAssets handles GET /assets
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.Service.List(r.Context())
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, AssetsPage{Assets: assets, Statuses: asset.AllStatuses})
}

// UpdateStatus handles PUT /assets/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	var req statusRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteError(w, r, err)
		return
	}
	if err := h.Service.UpdateStatus(r.Context(), h.Session(r), id, req.Status); err != nil {
		h.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
