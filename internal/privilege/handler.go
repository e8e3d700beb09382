package privilege

import (
	"net/http"

	"github.com/frahmantamala/asset-portal/internal/core/datamodel/privilege"
	"github.com/frahmantamala/asset-portal/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(base *transport.BaseHandler, svc *Service) *Handler {
	return &Handler{BaseHandler: base, Service: svc}
}

type GrantsPage struct {
	UserID int64             `json:"userId"`
	Grants []privilege.Grant `json:"grants"`
}

// ListGrants handles GET /privileges/{userID}
func (h *Handler) ListGrants(w http.ResponseWriter, r *http.Request) {
	userID, err := h.IDParam(r, "userID")
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	grants, err := h.Service.List(r.Context(), userID)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, GrantsPage{UserID: userID, Grants: grants})
}

// Assign handles POST /privileges/{userID}. The user id in the path wins over the body.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	userID, err := h.IDParam(r, "userID")
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	var dto AssignDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteError(w, r, err)
		return
	}
	dto.UserID = userID

	grants, err := h.Service.Assign(r.Context(), h.Session(r), dto)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, GrantsPage{UserID: userID, Grants: grants})
}

// Revoke handles DELETE /privileges/{userID}/{privilegeID}
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID, err := h.IDParam(r, "userID")
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	privilegeID, err := h.IDParam(r, "privilegeID")
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	grants, err := h.Service.Revoke(r.Context(), h.Session(r), userID, privilegeID)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, GrantsPage{UserID: userID, Grants: grants})
}
