package privilege

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/apiclient"
	"github.com/frahmantamala/asset-portal/internal/auth"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/privilege"
	"github.com/frahmantamala/asset-portal/internal/session"
)

type Backend interface {
	UserPrivileges(ctx context.Context, userID int64) ([]privilege.Grant, error)
	AssignPrivilege(ctx context.Context, req apiclient.AssignRequest) error
	RemovePrivilege(ctx context.Context, userID, privilegeID int64) error
}

// SessionRefresher is refreshed when an administrator changes their own grants.
type SessionRefresher interface {
	RefreshPrivileges(ctx context.Context) error
}

type Service struct {
	backend  Backend
	sessions SessionRefresher
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(backend Backend, sessions SessionRefresher, logger *slog.Logger) *Service {
	return &Service{
		backend:  backend,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) List(ctx context.Context, userID int64) ([]privilege.Grant, error) {
	return s.backend.UserPrivileges(ctx, userID)
}

// Assign creates a grant and returns the user's grants as re-fetched from the backend.
// Duplicates are left for the backend to reject.
func (s *Service) Assign(ctx context.Context, actor session.State, dto AssignDTO) ([]privilege.Grant, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.backend.AssignPrivilege(ctx, dto.toRequest()); err != nil {
		s.logger.Error("failed to assign privilege",
			"error", err,
			"user_id", dto.UserID,
			"privilege_id", dto.PrivilegeID)
		return nil, err
	}

	s.logger.Info("privilege assigned",
		"user_id", dto.UserID,
		"privilege_id", dto.PrivilegeID,
		"actor_id", actor.UserID())
	return s.refetch(ctx, actor, dto.UserID)
}

// Revoke removes a grant by privilege id and returns the re-fetched grants.
func (s *Service) Revoke(ctx context.Context, actor session.State, userID, privilegeID int64) ([]privilege.Grant, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}

	if err := s.backend.RemovePrivilege(ctx, userID, privilegeID); err != nil {
		s.logger.Error("failed to revoke privilege",
			"error", err,
			"user_id", userID,
			"privilege_id", privilegeID)
		return nil, err
	}

	s.logger.Info("privilege revoked",
		"user_id", userID,
		"privilege_id", privilegeID,
		"actor_id", actor.UserID())
	return s.refetch(ctx, actor, userID)
}

func (s *Service) authorize(actor session.State) error {
	if !actor.Authenticated() {
		return internal.ErrNotAuthenticated
	}
	privileges := auth.ActivePrivilegeNames(actor.Grants, s.now())
	if !auth.HasCapability(actor.Identity, privileges, privilege.ManagePrivileges) {
		s.logger.Warn("privilege administration denied", "actor_id", actor.UserID())
		return internal.ErrForbidden
	}
	return nil
}

func (s *Service) refetch(ctx context.Context, actor session.State, userID int64) ([]privilege.Grant, error) {
	grants, err := s.backend.UserPrivileges(ctx, userID)
	if err != nil {
		s.logger.Error("failed to re-fetch privileges", "error", err, "user_id", userID)
		return nil, err
	}

	if userID == actor.UserID() && s.sessions != nil {
		if err := s.sessions.RefreshPrivileges(ctx); err != nil {
			s.logger.Warn("failed to refresh own session privileges", "error", err)
		}
	}
	return grants, nil
}
