package auth

import (
	"time"

	"github.com/frahmantamala/asset-portal/internal/core/datamodel/identity"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/privilege"
)

// ApproverRoles may decide approval subjects.
var ApproverRoles = []identity.RoleName{
	identity.RoleManager,
	identity.RoleITManager,
	identity.RoleRHManager,
	identity.RolePlantManager,
}

func IsAdmin(id *identity.Identity) bool {
	return id.HasRole(identity.RoleAdmin)
}

func IsApprover(id *identity.Identity) bool {
	return HasAnyRole(id, ApproverRoles)
}

func HasAnyRole(id *identity.Identity, roles []identity.RoleName) bool {
	for _, role := range roles {
		if id.HasRole(role) {
			return true
		}
	}
	return false
}

// HasCapability is true for admins, otherwise only when name is among the privileges.
func HasCapability(id *identity.Identity, privileges []string, name string) bool {
	if IsAdmin(id) {
		return true
	}
	return HasAnyPrivilege(privileges, []string{name})
}

func HasAnyPrivilege(privileges []string, required []string) bool {
	for _, held := range privileges {
		for _, want := range required {
			if held == want {
				return true
			}
		}
	}
	return false
}

// CanChangeRole: ADMIN may change anyone, MANAGER only a USER, nobody else anything.
func CanChangeRole(acting, target identity.RoleName) bool {
	switch acting {
	case identity.RoleAdmin:
		return true
	case identity.RoleManager:
		return target == identity.RoleUser
	}
	return false
}

// CanDelete reuses the role change policy.
func CanDelete(acting, target identity.RoleName) bool {
	return CanChangeRole(acting, target)
}

// AllowedRoleAssignments lists the roles an actor may hand out. Only admins may reassign roles,
// even though CanChangeRole grants managers a narrower case.
func AllowedRoleAssignments(acting *identity.Identity) []identity.RoleName {
	if !IsAdmin(acting) {
		return []identity.RoleName{}
	}
	roles := make([]identity.RoleName, 0, len(identity.AllRoles)-1)
	for _, role := range identity.AllRoles {
		if role != identity.RoleUser {
			roles = append(roles, role)
		}
	}
	return roles
}

func CanAssignRole(acting *identity.Identity, role identity.RoleName) bool {
	for _, allowed := range AllowedRoleAssignments(acting) {
		if allowed == role {
			return true
		}
	}
	return false
}

// ActivePrivilegeNames returns the names of grants whose window contains now, without duplicates.
func ActivePrivilegeNames(grants []privilege.Grant, now time.Time) []string {
	names := make([]string, 0, len(grants))
	seen := make(map[string]struct{}, len(grants))
	for _, g := range grants {
		if !g.ActiveAt(now) {
			continue
		}
		if _, dup := seen[g.PrivilegeName]; dup {
			continue
		}
		seen[g.PrivilegeName] = struct{}{}
		names = append(names, g.PrivilegeName)
	}
	return names
}
