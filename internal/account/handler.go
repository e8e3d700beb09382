package account

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/auth"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/identity"
	"github.com/frahmantamala/asset-portal/internal/notification"
	"github.com/frahmantamala/asset-portal/internal/session"
	"github.com/frahmantamala/asset-portal/internal/transport"
)

// Sessions is the part of the session store the account pages drive.
type Sessions interface {
	State() session.State
	Login(ctx context.Context, userName, password string) (*identity.Identity, error)
	Logout(ctx context.Context)
	UpdateCredentials(ctx context.Context, patch session.CredentialsPatch) (*identity.Identity, error)
}

// Feed yields the latest polled notifications.
type Feed interface {
	Latest() []notification.Notification
}

type Handler struct {
	*transport.BaseHandler
	Sessions Sessions
	Feed     Feed
}

func NewHandler(base *transport.BaseHandler, sessions Sessions, feed Feed) *Handler {
	return &Handler{BaseHandler: base, Sessions: sessions, Feed: feed}
}

type LoginResult struct {
	User     *identity.Identity `json:"user"`
	Redirect string             `json:"redirect"`
}

type LoginPage struct {
	Authenticated bool   `json:"authenticated"`
	Next          string `json:"next,omitempty"`
}

type Dashboard struct {
	User          *identity.Identity          `json:"user"`
	RoleLabel     string                      `json:"roleLabel"`
	Approver      bool                        `json:"approver"`
	Privileges    []string                    `json:"privileges"`
	Notifications []notification.Notification `json:"notifications"`
}

type UnauthorizedPage struct {
	Message string `json:"message"`
	Home    string `json:"home"`
}

// LoginForm handles GET /login. Signed in visitors are sent to the landing page.
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.Sessions.State().Authenticated() {
		http.Redirect(w, r, session.LandingPath, http.StatusSeeOther)
		return
	}
	h.WriteJSON(w, http.StatusOK, LoginPage{Next: safeNext(r.URL.Query().Get("next"))})
}

// Login handles POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteError(w, r, err)
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, r, err)
		return
	}

	user, err := h.Sessions.Login(r.Context(), dto.UserName, dto.Password)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	redirect := safeNext(dto.Next)
	if redirect == "" {
		redirect = session.LandingPath
	}
	h.WriteJSON(w, http.StatusOK, LoginResult{User: user, Redirect: redirect})
}

// Logout handles POST /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Logout(r.Context())
	h.WriteJSON(w, http.StatusOK, map[string]string{"redirect": session.LoginPath})
}

// Dashboard handles GET /dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	st := h.Session(r)
	if !st.Authenticated() {
		h.WriteError(w, r, internal.ErrNotAuthenticated)
		return
	}

	notes := []notification.Notification{}
	if h.Feed != nil {
		notes = append(notes, h.Feed.Latest()...)
	}
	h.WriteJSON(w, http.StatusOK, Dashboard{
		User:          st.Identity,
		RoleLabel:     auth.RoleLabel(st.Identity.PrimaryRole()),
		Approver:      auth.IsApprover(st.Identity),
		Privileges:    st.Privileges,
		Notifications: notes,
	})
}

// Profile handles GET /profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	st := h.Session(r)
	if !st.Authenticated() {
		h.WriteError(w, r, internal.ErrNotAuthenticated)
		return
	}
	h.WriteJSON(w, http.StatusOK, st.Identity)
}

// UpdateProfile handles PUT /profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch session.CredentialsPatch
	if err := h.DecodeJSON(r, &patch); err != nil {
		h.WriteError(w, r, err)
		return
	}

	updated, err := h.Sessions.UpdateCredentials(r.Context(), patch)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, updated)
}

// Unauthorized handles GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusForbidden, UnauthorizedPage{
		Message: internal.ErrForbidden.Message,
		Home:    session.LandingPath,
	})
}

// safeNext keeps only local absolute paths so a login cannot bounce the visitor off-site.
// Browsers treat a backslash as a slash, so "/\host" is off-site too.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsRune(next, '\\') || next == session.LoginPath {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || strings.ContainsRune(u.Path, '\\') {
		return ""
	}
	return next
}
