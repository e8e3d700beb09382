package notification_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/asset-portal/internal/core/datamodel/identity"
	"github.com/frahmantamala/asset-portal/internal/guard"
	"github.com/frahmantamala/asset-portal/internal/metrics"
	"github.com/frahmantamala/asset-portal/internal/notification"
	"github.com/frahmantamala/asset-portal/internal/session"
	"github.com/frahmantamala/asset-portal/internal/transport"
	"github.com/frahmantamala/asset-portal/pkg/logger"
)

var _ = Describe("Notification Handler", func() {
	var handler *notification.Handler

	BeforeEach(func() {
		agg := notification.NewAggregator(notification.DefaultSources(seededBackend()), metrics.New(), logger.Discard())
		handler = notification.NewHandler(transport.NewBaseHandler(logger.Discard()), agg)
	})

	serve := func(st session.State) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
		req = req.WithContext(guard.ContextWithState(req.Context(), st))
		w := httptest.NewRecorder()
		handler.ListNotifications(w, req)
		return w
	}

	It("returns the viewer's notifications in priority order", func() {
		w := serve(viewer(identity.RoleManager))
		Expect(w.Code).To(Equal(http.StatusOK))

		var page notification.NotificationsPage
		Expect(json.NewDecoder(w.Body).Decode(&page)).To(Succeed())
		Expect(page.Count).To(Equal(len(page.Notifications)))
		Expect(page.Notifications).NotTo(BeEmpty())
		Expect(page.Notifications[0].Priority).To(Equal(notification.PriorityOverdueInvestment))
	})

	It("answers 401 without a session", func() {
		w := serve(session.State{})
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})
