package account

import (
	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/core/common/validation"
)

// LoginDTO is the body of POST /login.
type LoginDTO struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
	Next     string `json:"next,omitempty"`
}

func (d LoginDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("userName", d.UserName).Required()
	v.Field("password", d.Password).Required()
	return v.Validate()
}
