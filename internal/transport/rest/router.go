package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/asset-portal/api"
	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/account"
	"github.com/frahmantamala/asset-portal/internal/approval"
	"github.com/frahmantamala/asset-portal/internal/asset"
	"github.com/frahmantamala/asset-portal/internal/guard"
	"github.com/frahmantamala/asset-portal/internal/metrics"
	"github.com/frahmantamala/asset-portal/internal/notification"
	"github.com/frahmantamala/asset-portal/internal/privilege"
	"github.com/frahmantamala/asset-portal/internal/session"
	"github.com/frahmantamala/asset-portal/internal/transport/middleware"
	"github.com/frahmantamala/asset-portal/internal/transport/swagger"
	"github.com/frahmantamala/asset-portal/internal/user"
)

const openAPIPath = "/openapi.yml"

// Handlers groups the portal page handlers. A nil handler leaves its pages unmounted.
type Handlers struct {
	Account       *account.Handler
	Approvals     *approval.Handler
	Privileges    *privilege.Handler
	Users         *user.Handler
	Assets        *asset.Handler
	Notifications *notification.Handler
}

type RouterConfig struct {
	Server        internal.ServerConfig
	Production    bool
	Metrics       *metrics.Metrics
	MetricsConfig internal.MetricsConfig
}

// NewRouter assembles the portal. Operational endpoints sit outside the route guard; every
// page goes through it.
func NewRouter(cfg RouterConfig, h Handlers, g *guard.Guard, states guard.StateSource, health *HealthHandler, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.SecureHeaders(cfg.Server, cfg.Production, logger))
	router.Use(middleware.RateLimit(cfg.Server.RateLimitPerMin))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		status, body := internal.ErrPageNotFound.ToHTTPResponse()
		writeJSON(w, status, body)
	})

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, session.LandingPath, http.StatusSeeOther)
	})
	router.Get("/health", health.healthCheckHandler)
	router.Get("/ping", health.pingHandler)
	router.Get(openAPIPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Document())
	})
	router.Handle("/swagger/*", swagger.Handler(openAPIPath))
	if cfg.MetricsConfig.Enabled && cfg.Metrics != nil {
		router.Handle(cfg.MetricsConfig.Path, cfg.Metrics.Handler())
	}

	router.Group(func(pr chi.Router) {
		pr.Use(g.Middleware(states))

		if h.Account != nil {
			pr.Get("/login", h.Account.LoginForm)
			pr.Post("/login", h.Account.Login)
			pr.Post("/logout", h.Account.Logout)
			pr.Get("/unauthorized", h.Account.Unauthorized)
			pr.Get("/dashboard", h.Account.Dashboard)
			pr.Get("/profile", h.Account.Profile)
			pr.Put("/profile", h.Account.UpdateProfile)
		}

		if h.Notifications != nil {
			pr.Get("/notifications", h.Notifications.ListNotifications)
		}

		if h.Approvals != nil {
			pr.Get("/approvals", h.Approvals.ListApprovals)
			pr.Post("/approvals/{kind}/{id}/decision", h.Approvals.Decide)
		}

		if h.Users != nil {
			pr.Get("/users", h.Users.ListUsers)
			pr.Put("/users/{userID}/role", h.Users.ChangeRole)
			pr.Delete("/users/{userID}", h.Users.DeleteUser)
		}

		if h.Assets != nil {
			pr.Get("/assets", h.Assets.ListAssets)
			pr.Put("/assets/{id}/status", h.Assets.UpdateStatus)
		}

		if h.Privileges != nil {
			pr.Route("/privileges/{userID}", func(sr chi.Router) {
				sr.Get("/", h.Privileges.ListGrants)
				sr.Post("/", h.Privileges.Assign)
				sr.Delete("/{privilegeID}", h.Privileges.Revoke)
			})
		}
	})

	return router
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
