package approval

import "time"

type Status string

const (
	StatusPending       Status = "Pending"
	StatusUnderApproval Status = "Under-approval"
	StatusApproved      Status = "Approved"
	StatusRejected      Status = "Rejected"
)

type Decision string

const (
	DecisionApprove Decision = "Approved"
	DecisionReject  Decision = "Rejected"
)

// Kind tells which backend collection a subject lives in. Ids are only unique per kind.
type Kind string

const (
	KindInvestment Kind = "investment"
	KindRequest    Kind = "request"
)

func (k Kind) Valid() bool {
	return k == KindInvestment || k == KindRequest
}

// Subject is an investment item or equipment request awaiting decisions.
// Kind is set by the client from the collection the subject was loaded from.
type Subject struct {
	ID                int64               `json:"id" validate:"required,gt=0"`
	Kind              Kind                `json:"kind,omitempty"`
	Title             string              `json:"title,omitempty"`
	Status            Status              `json:"status" validate:"required,oneof=Pending Under-approval Approved Rejected"`
	RequestedBy       int64               `json:"requestedBy"`
	CurrentApprovals  int                 `json:"currentApprovals" validate:"gte=0"`
	RequiredApprovals int                 `json:"requiredApprovals" validate:"gte=0"`
	Approvals         map[string]Decision `json:"approvals,omitempty"`
	DueDate           *time.Time          `json:"dueDate,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
}

func (s *Subject) IsTerminal() bool {
	return s.Status == StatusApproved || s.Status == StatusRejected
}

// IsOverdue reports a due date strictly before now.
func (s *Subject) IsOverdue(now time.Time) bool {
	return s.DueDate != nil && s.DueDate.Before(now)
}
