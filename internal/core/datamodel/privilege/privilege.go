package privilege

import "time"

// Capability names used by feature-level guards.
const (
	ManageUsers      = "ManageUsers"
	ManageAssets     = "ManageAssets"
	ManagePrivileges = "ManagePrivileges"
)

type Privilege struct {
	ID   int64  `json:"id" validate:"required,gt=0"`
	Name string `json:"name" validate:"required"`
}

// Grant associates a privilege with a user, optionally bounded in time.
type Grant struct {
	UserID        int64      `json:"userId" validate:"required,gt=0"`
	PrivilegeID   int64      `json:"privilegeId" validate:"required,gt=0"`
	PrivilegeName string     `json:"privilegeName" validate:"required"`
	StartDate     *time.Time `json:"startDate,omitempty"`
	EndDate       *time.Time `json:"endDate,omitempty"`
}

// ActiveAt reports whether the grant's window contains t. Missing bounds are open.
func (g Grant) ActiveAt(t time.Time) bool {
	if g.StartDate != nil && t.Before(*g.StartDate) {
		return false
	}
	if g.EndDate != nil && t.After(*g.EndDate) {
		return false
	}
	return true
}
