package identity

import "time"

type RoleName string

const (
	RoleAdmin        RoleName = "ADMIN"
	RoleManager      RoleName = "MANAGER"
	RoleUser         RoleName = "USER"
	RoleITManager    RoleName = "IT_MANAGER"
	RoleRHManager    RoleName = "RH_MANAGER"
	RolePlantManager RoleName = "PLANT_MANAGER"
)

// AllRoles lists the closed role enumeration in display order.
var AllRoles = []RoleName{
	RoleAdmin,
	RoleManager,
	RoleUser,
	RoleITManager,
	RoleRHManager,
	RolePlantManager,
}

func (r RoleName) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Identity is a user record as returned by the backend.
type Identity struct {
	ID        int64      `json:"id" validate:"required,gt=0"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	UserName  string     `json:"userName" validate:"required"`
	Email     string     `json:"email" validate:"omitempty,email"`
	Address   string     `json:"address,omitempty"`
	Roles     []RoleName `json:"roles" validate:"dive,oneof=ADMIN MANAGER USER IT_MANAGER RH_MANAGER PLANT_MANAGER"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (i *Identity) HasRole(role RoleName) bool {
	if i == nil {
		return false
	}
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PrimaryRole returns the conventional single role of the identity.
// Identities without roles are treated as USER.
func (i *Identity) PrimaryRole() RoleName {
	if i == nil || len(i.Roles) == 0 {
		return RoleUser
	}
	return i.Roles[0]
}

func (i *Identity) FullName() string {
	if i == nil {
		return ""
	}
	switch {
	case i.FirstName == "" && i.LastName == "":
		return i.UserName
	case i.LastName == "":
		return i.FirstName
	case i.FirstName == "":
		return i.LastName
	}
	return i.FirstName + " " + i.LastName
}
