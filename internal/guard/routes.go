package guard

import (
	"strings"

	"github.com/frahmantamala/asset-portal/internal/auth"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/identity"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/privilege"
)

const (
	UnauthorizedPath = "/unauthorized"
	LoginPath        = "/login"
)

type Kind int

const (
	KindPublic Kind = iota
	KindAuthenticated
	KindAnyRole
	KindCapability
)

// Requirement is the predicate a route demands of the current session.
type Requirement struct {
	Kind       Kind
	Roles      []identity.RoleName
	Capability string
}

func Public() Requirement {
	return Requirement{Kind: KindPublic}
}

func Authenticated() Requirement {
	return Requirement{Kind: KindAuthenticated}
}

func AnyRole(roles ...identity.RoleName) Requirement {
	return Requirement{Kind: KindAnyRole, Roles: roles}
}

func Capability(name string) Requirement {
	return Requirement{Kind: KindCapability, Capability: name}
}

// Route binds a path pattern to a requirement. Patterns use "{name}" for a single
// segment and a trailing "*" for any remainder.
type Route struct {
	Pattern     string
	Requirement Requirement
}

type Table []Route

// Match returns the first route whose pattern matches path.
func (t Table) Match(path string) (Route, bool) {
	for _, route := range t {
		if matchPattern(route.Pattern, path) {
			return route, true
		}
	}
	return Route{}, false
}

func matchPattern(pattern, path string) bool {
	pp := splitPath(pattern)
	segs := splitPath(path)

	for i, p := range pp {
		if p == "*" {
			return true
		}
		if i >= len(segs) {
			return false
		}
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			continue
		}
		if p != segs[i] {
			return false
		}
	}
	return len(pp) == len(segs)
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// PortalRoutes is the route table of the portal server.
func PortalRoutes() Table {
	return Table{
		{Pattern: "/login", Requirement: Public()},
		{Pattern: "/logout", Requirement: Public()},
		{Pattern: UnauthorizedPath, Requirement: Public()},
		{Pattern: "/health", Requirement: Public()},
		{Pattern: "/ping", Requirement: Public()},
		{Pattern: "/openapi.yml", Requirement: Public()},
		{Pattern: "/swagger/*", Requirement: Public()},
		{Pattern: "/metrics", Requirement: Public()},

		{Pattern: "/dashboard", Requirement: Authenticated()},
		{Pattern: "/notifications", Requirement: Authenticated()},
		{Pattern: "/profile", Requirement: Authenticated()},
		{Pattern: "/approvals", Requirement: AnyRole(auth.ApproverRoles...)},
		{Pattern: "/approvals/*", Requirement: AnyRole(auth.ApproverRoles...)},
		{Pattern: "/users", Requirement: Capability(privilege.ManageUsers)},
		{Pattern: "/users/*", Requirement: Capability(privilege.ManageUsers)},
		{Pattern: "/assets", Requirement: Capability(privilege.ManageAssets)},
		{Pattern: "/assets/*", Requirement: Capability(privilege.ManageAssets)},
		{Pattern: "/privileges/*", Requirement: Capability(privilege.ManagePrivileges)},
	}
}
