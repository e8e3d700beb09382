package session

import (
	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/apiclient"
	"github.com/frahmantamala/asset-portal/internal/core/common/validation"
)

// CredentialsPatch updates the current identity. CurrentPassword is always required;
// nil fields are left untouched.
type CredentialsPatch struct {
	CurrentPassword string  `json:"currentPassword"`
	FirstName       *string `json:"firstName,omitempty"`
	LastName        *string `json:"lastName,omitempty"`
	Email           *string `json:"email,omitempty"`
	NewPassword     *string `json:"newPassword,omitempty"`
	Address         *string `json:"address,omitempty"`
}

func (p CredentialsPatch) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("currentPassword", p.CurrentPassword).Required()
	v.Field("firstName", p.FirstName).MaxLength(100)
	v.Field("lastName", p.LastName).MaxLength(100)
	v.Field("email", p.Email).Email()
	v.Field("newPassword", p.NewPassword).MinLength(8).MaxLength(128)
	v.Field("address", p.Address).MaxLength(255)
	return v.Validate()
}

func (p CredentialsPatch) toRequest() apiclient.CredentialsUpdate {
	return apiclient.CredentialsUpdate{
		CurrentPassword: p.CurrentPassword,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Email:           p.Email,
		NewPassword:     p.NewPassword,
		Address:         p.Address,
	}
}
