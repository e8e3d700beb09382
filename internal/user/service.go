package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/auth"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/identity"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/privilege"
	"github.com/frahmantamala/asset-portal/internal/session"
)

type Backend interface {
	Users(ctx context.Context) ([]identity.Identity, error)
	ChangeUserRole(ctx context.Context, userID int64, role identity.RoleName) error
	DeleteUser(ctx context.Context, userID int64) error
}

type Service struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(backend Backend, logger *slog.Logger) *Service {
	return &Service{
		backend: backend,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) List(ctx context.Context, actor session.State) ([]identity.Identity, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	return s.backend.Users(ctx)
}

// ChangeRole reassigns the target's role. The actor needs ManageUsers, must be allowed to
// change the target's current role, and may only hand out roles from AllowedRoleAssignments.
func (s *Service) ChangeRole(ctx context.Context, actor session.State, targetID int64, role identity.RoleName) error {
	if err := s.authorize(actor); err != nil {
		return err
	}
	if !role.Valid() {
		return internal.ErrInvalidRole
	}

	target, err := s.find(ctx, targetID)
	if err != nil {
		return err
	}
	if !auth.CanChangeRole(actor.Identity.PrimaryRole(), target.PrimaryRole()) || !auth.CanAssignRole(actor.Identity, role) {
		s.logger.Warn("role change denied",
			"actor_id", actor.UserID(),
			"target_id", targetID,
			"target_role", target.PrimaryRole(),
			"requested_role", role)
		return internal.ErrForbidden
	}

	if err := s.backend.ChangeUserRole(ctx, targetID, role); err != nil {
		s.logger.Error("failed to change role", "error", err, "target_id", targetID)
		return err
	}

	s.logger.Info("role changed",
		"actor_id", actor.UserID(),
		"target_id", targetID,
		"role", role)
	return nil
}

func (s *Service) Delete(ctx context.Context, actor session.State, targetID int64) error {
	if err := s.authorize(actor); err != nil {
		return err
	}

	target, err := s.find(ctx, targetID)
	if err != nil {
		return err
	}
	if !auth.CanDelete(actor.Identity.PrimaryRole(), target.PrimaryRole()) {
		s.logger.Warn("user deletion denied", "actor_id", actor.UserID(), "target_id", targetID)
		return internal.ErrForbidden
	}

	if err := s.backend.DeleteUser(ctx, targetID); err != nil {
		s.logger.Error("failed to delete user", "error", err, "target_id", targetID)
		return err
	}

	s.logger.Info("user deleted", "actor_id", actor.UserID(), "target_id", targetID)
	return nil
}

func (s *Service) authorize(actor session.State) error {
	if !actor.Authenticated() {
		return internal.ErrNotAuthenticated
	}
	privileges := auth.ActivePrivilegeNames(actor.Grants, s.now())
	if !auth.HasCapability(actor.Identity, privileges, privilege.ManageUsers) {
		return internal.ErrForbidden
	}
	return nil
}

func (s *Service) find(ctx context.Context, userID int64) (*identity.Identity, error) {
	users, err := s.backend.Users(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == userID {
			return &users[i], nil
		}
	}
	return nil, internal.ErrNotFound
}
