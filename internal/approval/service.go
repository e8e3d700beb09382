package approval

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/apiclient"
	"github.com/frahmantamala/asset-portal/internal/auth"
	approvalmodel "github.com/frahmantamala/asset-portal/internal/core/datamodel/approval"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/identity"
	"github.com/frahmantamala/asset-portal/internal/metrics"
)

type Backend interface {
	InvestmentItems(ctx context.Context) ([]approvalmodel.Subject, error)
	SubmitInvestmentItem(ctx context.Context, draft apiclient.InvestmentDraft) (*approvalmodel.Subject, error)
	UpdateInvestmentStatus(ctx context.Context, subjectID int64, status approvalmodel.Status) error
	Requests(ctx context.Context) ([]approvalmodel.Subject, error)
	DecideRequest(ctx context.Context, subjectID int64, decision approvalmodel.Decision) error
}

type Service struct {
	backend Backend
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(backend Backend, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		backend: backend,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) InvestmentItems(ctx context.Context) ([]approvalmodel.Subject, error) {
	return tagged(approvalmodel.KindInvestment)(s.backend.InvestmentItems(ctx))
}

func (s *Service) Requests(ctx context.Context) ([]approvalmodel.Subject, error) {
	return tagged(approvalmodel.KindRequest)(s.backend.Requests(ctx))
}

// tagged stamps every loaded subject with the kind of the collection it came from.
func tagged(kind approvalmodel.Kind) func([]approvalmodel.Subject, error) ([]approvalmodel.Subject, error) {
	return func(subjects []approvalmodel.Subject, err error) ([]approvalmodel.Subject, error) {
		if err != nil {
			return nil, err
		}
		for i := range subjects {
			subjects[i].Kind = kind
		}
		return subjects, nil
	}
}

// Submit creates a new investment item; the backend stores it as Pending.
func (s *Service) Submit(ctx context.Context, actor *identity.Identity, dto SubmitDTO) (*approvalmodel.Subject, error) {
	if actor == nil {
		return nil, internal.ErrNotAuthenticated
	}
	if err := dto.Validate(s.now()); err != nil {
		s.logger.Warn("investment item validation failed", "error", err, "user_id", actor.ID)
		return nil, err
	}

	subject, err := s.backend.SubmitInvestmentItem(ctx, dto.toDraft())
	if err != nil {
		s.logger.Error("failed to submit investment item", "error", err, "user_id", actor.ID)
		return nil, err
	}
	subject.Kind = approvalmodel.KindInvestment

	s.logger.Info("investment item submitted",
		"subject_id", subject.ID,
		"user_id", actor.ID,
		"required_approvals", subject.RequiredApprovals)
	return subject, nil
}

// Decide records an approver's decision on a subject and returns the locally projected subject.
// Investment items are updated through their form with the projected status; equipment
// requests take the decision on their status endpoint.
func (s *Service) Decide(ctx context.Context, actor *identity.Identity, subject approvalmodel.Subject, decision approvalmodel.Decision) (*approvalmodel.Subject, error) {
	if !auth.IsApprover(actor) {
		s.logger.Warn("decision denied: actor is not an approver", "subject_id", subject.ID)
		return nil, internal.ErrNotApprover
	}
	if decision != approvalmodel.DecisionApprove && decision != approvalmodel.DecisionReject {
		return nil, internal.ErrInvalidStatus
	}
	if !subject.Kind.Valid() {
		return nil, internal.ErrInvalidKind
	}
	if subject.IsTerminal() {
		s.logger.Info("subject already decided",
			"subject_id", subject.ID,
			"kind", subject.Kind,
			"current_status", subject.Status)
		return nil, internal.ErrAlreadyDecided
	}

	projected := Project(subject, decision)

	var err error
	if subject.Kind == approvalmodel.KindInvestment {
		err = s.backend.UpdateInvestmentStatus(ctx, subject.ID, projected.Status)
	} else {
		err = s.backend.DecideRequest(ctx, subject.ID, decision)
	}
	if err != nil {
		if internal.IsStatus(err, http.StatusBadRequest) || internal.IsStatus(err, http.StatusConflict) {
			return nil, internal.ErrAlreadyDecided.WithCause(err)
		}
		s.logger.Error("failed to record decision", "error", err, "subject_id", subject.ID, "kind", subject.Kind)
		return nil, err
	}

	approvals := make(map[string]approvalmodel.Decision, len(subject.Approvals)+1)
	for approver, d := range subject.Approvals {
		approvals[approver] = d
	}
	approvals[actor.UserName] = decision
	projected.Approvals = approvals

	s.logger.Info("decision recorded",
		"subject_id", subject.ID,
		"kind", subject.Kind,
		"approver_id", actor.ID,
		"decision", decision,
		"status", projected.Status)
	return &projected, nil
}

// Project applies a decision locally without I/O. Terminal subjects are returned unchanged.
func Project(subject approvalmodel.Subject, decision approvalmodel.Decision) approvalmodel.Subject {
	if subject.IsTerminal() {
		return subject
	}
	switch decision {
	case approvalmodel.DecisionReject:
		subject.Status = approvalmodel.StatusRejected
	case approvalmodel.DecisionApprove:
		subject.CurrentApprovals++
		if subject.CurrentApprovals >= subject.RequiredApprovals {
			subject.Status = approvalmodel.StatusApproved
		} else {
			subject.Status = approvalmodel.StatusUnderApproval
		}
	}
	return subject
}

// Find looks a subject up in the collection of the given kind.
func (s *Service) Find(ctx context.Context, kind approvalmodel.Kind, subjectID int64) (*approvalmodel.Subject, error) {
	var load func(context.Context) ([]approvalmodel.Subject, error)
	switch kind {
	case approvalmodel.KindInvestment:
		load = s.InvestmentItems
	case approvalmodel.KindRequest:
		load = s.Requests
	default:
		return nil, internal.ErrInvalidKind
	}

	subjects, err := load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range subjects {
		if subjects[i].ID == subjectID {
			return &subjects[i], nil
		}
	}
	return nil, internal.ErrNotFound
}
