package privilege_test

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
	"github.com/frahmantamala/asset-portal/internal/apiclient"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/identity"
	privilegemodel "github.com/frahmantamala/asset-portal/internal/core/datamodel/privilege"
	"github.com/frahmantamala/asset-portal/internal/guard"
	"github.com/frahmantamala/asset-portal/internal/privilege"
	"github.com/frahmantamala/asset-portal/internal/session"
	"github.com/frahmantamala/asset-portal/internal/transport"
	"github.com/frahmantamala/asset-portal/pkg/logger"
)

var _ = Describe("Privilege Handler", func() {
	var (
		backend *grantServer
		server  *httptest.Server
		router  chi.Router
		state   session.State
	)

	BeforeEach(func() {
		backend = &grantServer{grants: map[int64][]privilegemodel.Grant{}}
		server = httptest.NewServer(backend)
		client, err := apiclient.NewClient(apiclient.Config{BaseURL: server.URL + "/api/", Timeout: time.Second}, logger.Discard(), nil)
		Expect(err).NotTo(HaveOccurred())

		handler := privilege.NewHandler(transport.NewBaseHandler(logger.Discard()), privilege.NewService(client, nil, logger.Discard()))
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(guard.ContextWithState(r.Context(), state)))
			})
		})
		router.Get("/privileges/{userID}", handler.ListGrants)
		router.Post("/privileges/{userID}", handler.Assign)
		router.Delete("/privileges/{userID}/{privilegeID}", handler.Revoke)
		state = actorState(identity.RoleAdmin)
	})

	AfterEach(func() {
		server.Close()
	})

	decode := func(w *httptest.ResponseRecorder) privilege.GrantsPage {
		var page privilege.GrantsPage
		Expect(json.NewDecoder(w.Body).Decode(&page)).To(Succeed())
		return page
	}

	It("assigns, lists and revokes", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/privileges/42", strings.NewReader(`{"privilegeId":2}`)))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(ids(decode(w).Grants)).To(Equal([]int64{2}))

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/privileges/42", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w).Grants[0].PrivilegeName).To(Equal(privilegemodel.ManageAssets))

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/privileges/42/2", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w).Grants).To(BeEmpty())
	})

	It("answers 403 for actors without ManagePrivileges", func() {
		state = actorState(identity.RoleManager)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/privileges/42/2", nil))
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("answers 400 for an inverted date window", func() {
		body := `{"privilegeId":2,"startDate":"2026-05-01T00:00:00Z","endDate":"2026-04-01T00:00:00Z"}`
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/privileges/42", strings.NewReader(body)))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(backend.grants[42]).To(BeEmpty())
	})

	It("answers 400 with the backend message when the backend refuses an assign", func() {
		backend.refuse = "privilege already assigned"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/privileges/42", strings.NewReader(`{"privilegeId":2}`)))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		var resp struct {
			Error struct {
				Code    string          `json:"code"`
				Message string          `json:"message"`
				Details json.RawMessage `json:"details"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Error.Code).To(Equal(string(internal.ErrCodeBackendRejected)))
		Expect(resp.Error.Message).To(Equal("privilege already assigned"))
		Expect(string(resp.Error.Details)).To(MatchJSON(`{"message":"privilege already assigned"}`))
		Expect(backend.grants[42]).To(BeEmpty())
	})
})
