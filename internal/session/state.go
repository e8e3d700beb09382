package session

import (
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/identity"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/privilege"
)

// State is an immutable snapshot of who is acting now.
type State struct {
	Initializing bool
	Identity     *identity.Identity
	Token        string
	Grants       []privilege.Grant
	// Privileges holds the names of the grants active when they were fetched.
	Privileges []string
}

func (s State) Authenticated() bool {
	return s.Identity != nil
}

func (s State) UserID() int64 {
	if s.Identity == nil {
		return 0
	}
	return s.Identity.ID
}

func (s State) clone() State {
	cp := s
	if s.Identity != nil {
		id := *s.Identity
		id.Roles = append([]identity.RoleName(nil), s.Identity.Roles...)
		cp.Identity = &id
	}
	cp.Grants = append([]privilege.Grant(nil), s.Grants...)
	cp.Privileges = append([]string(nil), s.Privileges...)
	return cp
}
