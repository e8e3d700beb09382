package approval_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/approval"
	approvalmodel "github.com/frahmantamala/asset-portal/internal/core/datamodel/approval"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/identity"
	"github.com/frahmantamala/asset-portal/internal/guard"
	"github.com/frahmantamala/asset-portal/internal/metrics"
	"github.com/frahmantamala/asset-portal/internal/session"
	"github.com/frahmantamala/asset-portal/internal/transport"
	"github.com/frahmantamala/asset-portal/pkg/logger"
)

var _ = Describe("Approval Handler", func() {
	var (
		backend *mockBackend
		router  chi.Router
		state   session.State
		now     time.Time
	)

	BeforeEach(func() {
		backend = newMockBackend()
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		svc := approval.NewService(backend, metrics.New(), logger.Discard(), approval.WithClock(func() time.Time { return now }))
		handler := approval.NewHandler(transport.NewBaseHandler(logger.Discard()), svc)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(guard.ContextWithState(r.Context(), state)))
			})
		})
		router.Get("/approvals", handler.ListApprovals)
		router.Post("/approvals/{kind}/{id}/decision", handler.Decide)

		state = session.State{
			Identity: &identity.Identity{ID: 3, UserName: "boss", Roles: []identity.RoleName{identity.RoleManager}},
			Token:    "t",
		}
	})

	It("sweeps overdue items when the page loads", func() {
		past := now.Add(-time.Hour)
		backend.items = []approvalmodel.Subject{
			{ID: 1, Status: approvalmodel.StatusPending, DueDate: &past},
			{ID: 2, Status: approvalmodel.StatusUnderApproval, RequiredApprovals: 2, CurrentApprovals: 1},
		}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/approvals", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		var page approval.ApprovalsPage
		Expect(json.NewDecoder(w.Body).Decode(&page)).To(Succeed())
		Expect(page.Sweep.Rejected).To(Equal([]int64{1}))
		Expect(page.InvestmentItems[0].Status).To(Equal(approvalmodel.StatusRejected))
		Expect(backend.updates).To(Equal([]int64{1}))
	})

	It("writes an investment decision as the projected status", func() {
		backend.items = []approvalmodel.Subject{{ID: 4, Status: approvalmodel.StatusPending, RequiredApprovals: 2}}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/approvals/investment/4/decision", strings.NewReader(`{"decision":"Approved"}`)))

		Expect(w.Code).To(Equal(http.StatusOK))
		var subject approvalmodel.Subject
		Expect(json.NewDecoder(w.Body).Decode(&subject)).To(Succeed())
		Expect(subject.Kind).To(Equal(approvalmodel.KindInvestment))
		Expect(subject.Status).To(Equal(approvalmodel.StatusUnderApproval))
		Expect(subject.Approvals).To(HaveKeyWithValue("boss", approvalmodel.DecisionApprove))
		Expect(backend.statuses).To(HaveKeyWithValue(int64(4), approvalmodel.StatusUnderApproval))
		Expect(backend.decisions).To(BeEmpty())
	})

	It("sends a request decision to the request endpoint", func() {
		backend.requests = []approvalmodel.Subject{{ID: 4, Status: approvalmodel.StatusPending, RequiredApprovals: 1}}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/approvals/request/4/decision", strings.NewReader(`{"decision":"Rejected"}`)))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(backend.decisions).To(HaveKeyWithValue(int64(4), approvalmodel.DecisionReject))
		Expect(backend.statuses).To(BeEmpty())
	})

	It("resolves an id shared by both collections through the kind", func() {
		backend.items = []approvalmodel.Subject{{ID: 4, Title: "Servers", Status: approvalmodel.StatusApproved}}
		backend.requests = []approvalmodel.Subject{{ID: 4, Title: "Monitor", Status: approvalmodel.StatusPending, RequiredApprovals: 1}}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/approvals/request/4/decision", strings.NewReader(`{"decision":"Approved"}`)))

		Expect(w.Code).To(Equal(http.StatusOK))
		var subject approvalmodel.Subject
		Expect(json.NewDecoder(w.Body).Decode(&subject)).To(Succeed())
		Expect(subject.Title).To(Equal("Monitor"))
		Expect(subject.Status).To(Equal(approvalmodel.StatusApproved))
		Expect(backend.decisions).To(HaveKeyWithValue(int64(4), approvalmodel.DecisionApprove))

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/approvals/investment/4/decision", strings.NewReader(`{"decision":"Approved"}`)))
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(backend.statuses).To(BeEmpty())
	})

	It("answers 400 for an unknown kind", func() {
		backend.items = []approvalmodel.Subject{{ID: 4, Status: approvalmodel.StatusPending}}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/approvals/expense/4/decision", strings.NewReader(`{"decision":"Approved"}`)))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeInvalidKind)))
		Expect(backend.updates).To(BeEmpty())
		Expect(backend.decisions).To(BeEmpty())
	})

	It("answers 409 for a subject that is already decided", func() {
		backend.items = []approvalmodel.Subject{{ID: 4, Status: approvalmodel.StatusApproved}}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/approvals/investment/4/decision", strings.NewReader(`{"decision":"Rejected"}`)))

		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeAlreadyDecided)))
	})

	It("answers 404 for an unknown subject", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/approvals/request/42/decision", strings.NewReader(`{"decision":"Approved"}`)))
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("answers 403 for non-approvers", func() {
		backend.items = []approvalmodel.Subject{{ID: 4, Status: approvalmodel.StatusPending}}
		state.Identity = &identity.Identity{ID: 9, UserName: "jdoe", Roles: []identity.RoleName{identity.RoleUser}}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/approvals/investment/4/decision", strings.NewReader(`{"decision":"Approved"}`)))
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})
})
