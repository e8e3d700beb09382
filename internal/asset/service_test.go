package asset_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/asset"
	model "github.com/frahmantamala/asset-portal/internal/core/datamodel/asset"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/identity"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/privilege"
	"github.com/frahmantamala/asset-portal/internal/guard"
	"github.com/frahmantamala/asset-portal/internal/session"
	"github.com/frahmantamala/asset-portal/internal/transport"
	"github.com/frahmantamala/asset-portal/pkg/logger"
)

func TestAsset(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Asset Lifecycle Suite")
}

type mockBackend struct {
	assets  []model.Asset
	updates map[int64]model.Status
	err     error
}

func (m *mockBackend) Assets(_ context.Context) ([]model.Asset, error) {
	return m.assets, m.err
}

func (m *mockBackend) UpdateAssetStatus(_ context.Context, assetID int64, status model.Status) error {
	if m.err != nil {
		return m.err
	}
	m.updates[assetID] = status
	return nil
}

func stateWith(role identity.RoleName, grants ...privilege.Grant) session.State {
	names := make([]string, 0, len(grants))
	for _, g := range grants {
		names = append(names, g.PrivilegeName)
	}
	return session.State{
		Identity:   &identity.Identity{ID: 7, UserName: "tech", Roles: []identity.RoleName{role}},
		Token:      "t",
		Grants:     grants,
		Privileges: names,
	}
}

var _ = Describe("Asset Service", func() {
	var (
		ctx     context.Context
		backend *mockBackend
		service *asset.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = &mockBackend{
			assets:  []model.Asset{{ID: 1, SerialNumber: "SN-1", Status: model.StatusInService}},
			updates: make(map[int64]model.Status),
		}
		service = asset.NewService(backend, logger.Discard())
	})

	It("allows any transition for a ManageAssets holder", func() {
		st := stateWith(identity.RoleITManager, privilege.Grant{UserID: 7, PrivilegeID: 2, PrivilegeName: privilege.ManageAssets})
		Expect(service.UpdateStatus(ctx, st, 1, model.StatusScrap)).To(Succeed())
		Expect(service.UpdateStatus(ctx, st, 1, model.StatusInService)).To(Succeed())
		Expect(backend.updates).To(HaveKeyWithValue(int64(1), model.StatusInService))
	})

	It("rejects unknown statuses before calling the backend", func() {
		err := service.UpdateStatus(ctx, stateWith(identity.RoleAdmin), 1, "Lost")
		Expect(errors.Is(err, internal.ErrInvalidStatus)).To(BeTrue())
		Expect(backend.updates).To(BeEmpty())
	})

	It("ignores a ManageAssets grant that has expired", func() {
		ended := time.Now().Add(-time.Hour)
		st := stateWith(identity.RoleUser, privilege.Grant{UserID: 7, PrivilegeID: 2, PrivilegeName: privilege.ManageAssets, EndDate: &ended})
		err := service.UpdateStatus(ctx, st, 1, model.StatusScrap)
		Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())
	})

	It("requires a session", func() {
		err := service.UpdateStatus(ctx, session.State{}, 1, model.StatusScrap)
		Expect(errors.Is(err, internal.ErrNotAuthenticated)).To(BeTrue())
	})

	It("passes backend failures through", func() {
		backend.err = &internal.APIError{Method: "PUT", Path: "asset/1", StatusCode: http.StatusInternalServerError}
		err := service.UpdateStatus(ctx, stateWith(identity.RoleAdmin), 1, model.StatusScrap)
		Expect(internal.IsStatus(err, http.StatusInternalServerError)).To(BeTrue())
	})
})

var _ = Describe("Asset Handler", func() {
	var (
		backend *mockBackend
		router  chi.Router
		state   session.State
	)

	BeforeEach(func() {
		backend = &mockBackend{
			assets:  []model.Asset{{ID: 1, SerialNumber: "SN-1", Status: model.StatusInService}},
			updates: make(map[int64]model.Status),
		}
		handler := asset.NewHandler(transport.NewBaseHandler(logger.Discard()), asset.NewService(backend, logger.Discard()))
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(guard.ContextWithState(r.Context(), state)))
			})
		})
		router.Get("/assets", handler.ListAssets)
		router.Put("/assets/{id}/status", handler.UpdateStatus)
		state = stateWith(identity.RoleAdmin)
	})

	It("lists assets with the selectable statuses", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"SN-1"`))
		Expect(w.Body.String()).To(ContainSubstring(`"In Maintenance"`))
	})

	It("updates a status", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/assets/1/status", strings.NewReader(`{"status":"In Maintenance"}`)))
		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(backend.updates).To(HaveKeyWithValue(int64(1), model.StatusInMaintenance))
	})

	It("maps a backend outage to 502", func() {
		backend.err = &internal.APIError{Method: "PUT", Path: "asset/1", StatusCode: http.StatusServiceUnavailable}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/assets/1/status", strings.NewReader(`{"status":"Scrap"}`)))
		Expect(w.Code).To(Equal(http.StatusBadGateway))
	})

	It("answers 403 without ManageAssets", func() {
		state = stateWith(identity.RoleUser)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/assets/1/status", strings.NewReader(`{"status":"Scrap"}`)))
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})
})
