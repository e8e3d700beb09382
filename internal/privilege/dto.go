package privilege

import (
	"time"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/apiclient"
	"github.com/frahmantamala/asset-portal/internal/core/common/validation"
)

type AssignDTO struct {
	UserID      int64      `json:"userId"`
	PrivilegeID int64      `json:"privilegeId"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

func (dto AssignDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("userId", dto.UserID).Positive()
	v.Field("privilegeId", dto.PrivilegeID).Positive()
	v.Field("endDate", dto.EndDate).NotBefore(dto.StartDate, "startDate")
	return v.Validate()
}

func (dto AssignDTO) toRequest() apiclient.AssignRequest {
	return apiclient.AssignRequest{
		UserID:      dto.UserID,
		PrivilegeID: dto.PrivilegeID,
		StartDate:   dto.StartDate,
		EndDate:     dto.EndDate,
	}
}
