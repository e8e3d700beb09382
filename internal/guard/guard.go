package guard

import (
	"log/slog"
	"time"

	"github.com/frahmantamala/asset-portal/internal/auth"
	"github.com/frahmantamala/asset-portal/internal/metrics"
	"github.com/frahmantamala/asset-portal/internal/session"
)

type Outcome int

const (
	Loading Outcome = iota
	Allowed
	Denied
	Login
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	case Login:
		return "login"
	case NotFound:
		return "not_found"
	}
	return "unknown"
}

type Decision struct {
	Outcome Outcome
	// Route is the matched pattern, empty for NotFound.
	Route string
	// Redirect is set for Denied and Login.
	Redirect string
}

type Guard struct {
	routes  Table
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(routes Table, m *metrics.Metrics, logger *slog.Logger) *Guard {
	return &Guard{routes: routes, metrics: m, logger: logger}
}

// Evaluate judges one navigation. It is cheap and is meant to run on every request.
func (g *Guard) Evaluate(st session.State, path string, now time.Time) Decision {
	d := Evaluate(g.routes, st, path, now)
	g.metrics.RecordGuard(routeLabel(d), d.Outcome.String())
	return d
}

func Evaluate(routes Table, st session.State, path string, now time.Time) Decision {
	route, ok := routes.Match(path)
	if !ok {
		return Decision{Outcome: NotFound}
	}
	req := route.Requirement
	if req.Kind == KindPublic {
		return Decision{Outcome: Allowed, Route: route.Pattern}
	}
	if st.Initializing {
		return Decision{Outcome: Loading, Route: route.Pattern}
	}
	if !st.Authenticated() {
		return Decision{Outcome: Login, Route: route.Pattern, Redirect: LoginPath}
	}
	if !satisfies(req, st, now) {
		return Decision{Outcome: Denied, Route: route.Pattern, Redirect: UnauthorizedPath}
	}
	return Decision{Outcome: Allowed, Route: route.Pattern}
}

func satisfies(req Requirement, st session.State, now time.Time) bool {
	switch req.Kind {
	case KindAuthenticated:
		return true
	case KindAnyRole:
		return auth.HasAnyRole(st.Identity, req.Roles)
	case KindCapability:
		return auth.HasCapability(st.Identity, auth.ActivePrivilegeNames(st.Grants, now), req.Capability)
	}
	return false
}

func routeLabel(d Decision) string {
	if d.Route == "" {
		return "unmatched"
	}
	return d.Route
}
