package user

import (
	"net/http"

	"github.com/frahmantamala/asset-portal/internal/auth"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/identity"
	"github.com/frahmantamala/asset-portal/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(base *transport.BaseHandler, svc *Service) *Handler {
	return &Handler{BaseHandler: base, Service: svc}
}

type UserView struct {
	identity.Identity
	RoleLabel string `json:"roleLabel"`
	CanChange bool   `json:"canChangeRole"`
	CanDelete bool   `json:"canDelete"`
}

type UsersPage struct {
	Users           []UserView          `json:"users"`
	AssignableRoles []identity.RoleName `json:"assignableRoles"`
}

type changeRoleRequest struct {
	Role identity.RoleName `json:"role"`
}

// ListUsers handles GET /users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor := h.Session(r)
	users, err := h.Service.List(r.Context(), actor)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	page := UsersPage{
		Users:           make([]UserView, 0, len(users)),
		AssignableRoles: auth.AllowedRoleAssignments(actor.Identity),
	}
	acting := actor.Identity.PrimaryRole()
	for _, u := range users {
		page.Users = append(page.Users, UserView{
			Identity:  u,
			RoleLabel: auth.RoleLabel(u.PrimaryRole()),
			CanChange: auth.CanChangeRole(acting, u.PrimaryRole()),
			CanDelete: auth.CanDelete(acting, u.PrimaryRole()),
		})
	}
	h.WriteJSON(w, http.StatusOK, page)
}

// ChangeRole handles PUT /users/{userID}/role
func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	targetID, err := h.IDParam(r, "userID")
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	var req changeRoleRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteError(w, r, err)
		return
	}

	if err := h.Service.ChangeRole(r.Context(), h.Session(r), targetID, req.Role); err != nil {
		h.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteUser handles DELETE /users/{userID}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	targetID, err := h.IDParam(r, "userID")
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), h.Session(r), targetID); err != nil {
		h.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
