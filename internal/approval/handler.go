package approval

import (
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/asset-portal/internal"
	approvalmodel "github.com/frahmantamala/asset-portal/internal/core/datamodel/approval"
	"github.com/frahmantamala/asset-portal/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(base *transport.BaseHandler, svc *Service) *Handler {
	return &Handler{BaseHandler: base, Service: svc}
}

type ApprovalsPage struct {
	InvestmentItems []approvalmodel.Subject `json:"investmentItems"`
	Requests        []approvalmodel.Subject `json:"requests"`
	Sweep           SweepReport             `json:"sweep"`
}

// ListApprovals handles GET /approvals. Loading the page runs the due-date sweep.
func (h *Handler) ListApprovals(w http.ResponseWriter, r *http.Request) {
	items, report, err := h.Service.LoadAndSweep(r.Context())
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	requests, err := h.Service.Requests(r.Context())
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ApprovalsPage{
		InvestmentItems: items,
		Requests:        requests,
		Sweep:           report,
	})
}

// Decide handles POST /approvals/{kind}/{id}/decision where kind is investment or request.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	kind := approvalmodel.Kind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		h.WriteError(w, r, internal.ErrInvalidKind)
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	var req DecisionDTO
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteError(w, r, err)
		return
	}

	subject, err := h.Service.Find(r.Context(), kind, id)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	projected, err := h.Service.Decide(r.Context(), h.Session(r).Identity, *subject, approvalmodel.Decision(req.Decision))
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, projected)
}
