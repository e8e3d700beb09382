package asset

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/auth"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/asset"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/privilege"
	"github.com/frahmantamala/asset-portal/internal/session"
)

type Backend interface {
	Assets(ctx context.Context) ([]asset.Asset, error)
	UpdateAssetStatus(ctx context.Context, assetID int64, status asset.Status) error
}

type Service struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(backend Backend, logger *slog.Logger) *Service {
	return &Service{backend: backend, logger: logger, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]asset.Asset, error) {
	return s.backend.Assets(ctx)
}

// UpdateStatus moves an asset to any lifecycle status. No transition table applies.
func (s *Service) UpdateStatus(ctx context.Context, actor session.State, assetID int64, status asset.Status) error {
	if !actor.Authenticated() {
		return internal.ErrNotAuthenticated
	}
	privileges := auth.ActivePrivilegeNames(actor.Grants, s.now())
	if !auth.HasCapability(actor.Identity, privileges, privilege.ManageAssets) {
		return internal.ErrForbidden
	}
	if assetID <= 0 {
		return internal.NewValidationFieldError("id", "id must be a positive integer", internal.ErrCodeValidationFailed)
	}
	if !status.Valid() {
		return internal.ErrInvalidStatus
	}

	if err := s.backend.UpdateAssetStatus(ctx, assetID, status); err != nil {
		s.logger.Error("failed to update asset status", "error", err, "asset_id", assetID, "status", status)
		return err
	}
	s.logger.Info("asset status updated", "actor_id", actor.UserID(), "asset_id", assetID, "status", status)
	return nil
}
