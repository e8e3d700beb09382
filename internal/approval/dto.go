package approval

import (
	"time"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/apiclient"
	"github.com/frahmantamala/asset-portal/internal/core/common/validation"
)

type SubmitDTO struct {
	Title             string     `json:"title"`
	RequiredApprovals int        `json:"requiredApprovals"`
	DueDate           *time.Time `json:"dueDate,omitempty"`
}

func (dto SubmitDTO) Validate(now time.Time) *internal.AppError {
	v := validation.NewValidator()
	v.Field("title", dto.Title).Required().MaxLength(200)
	v.Field("requiredApprovals", int64(dto.RequiredApprovals)).Positive()
	v.Field("dueDate", dto.DueDate).NotBefore(&now, "now")
	return v.Validate()
}

func (dto SubmitDTO) toDraft() apiclient.InvestmentDraft {
	return apiclient.InvestmentDraft{
		Title:             dto.Title,
		RequiredApprovals: dto.RequiredApprovals,
		DueDate:           dto.DueDate,
	}
}

// DecisionDTO is the body of a decision action.
type DecisionDTO struct {
	Decision string `json:"decision"`
}
