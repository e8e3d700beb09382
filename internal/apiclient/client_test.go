package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/apiclient"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/approval"
	"github.com/frahmantamala/asset-portal/internal/metrics"
	"github.com/frahmantamala/asset-portal/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAPIClient(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Client Suite")
}

type staticToken string

func (s staticToken) Token() string { return string(s) }

type recorded struct {
	method    string
	path      string
	auth      string
	requestID string
	body      []byte
}

var _ = Describe("Client", func() {
	var (
		server  *httptest.Server
		client  *apiclient.Client
		m       *metrics.Metrics
		last    recorded
		status  int
		payload string
	)

	BeforeEach(func() {
		status = http.StatusOK
		payload = ""
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			last = recorded{
				method:    r.Method,
				path:      r.URL.Path,
				auth:      r.Header.Get("Authorization"),
				requestID: r.Header.Get("X-Request-ID"),
				body:      body,
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, payload)
		}))

		m = metrics.New()
		var err error
		client, err = apiclient.NewClient(apiclient.Config{BaseURL: server.URL + "/api/", Timeout: time.Second}, logger.Discard(), m)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("headers", func() {
		It("omits Authorization when there is no token", func() {
			Expect(client.DeleteUser(context.Background(), 3)).To(Succeed())
			Expect(last.auth).To(BeEmpty())
			Expect(last.requestID).NotTo(BeEmpty())
		})

		It("sends the bearer token from the token source", func() {
			client.UseTokenSource(staticToken("abc"))
			Expect(client.DeleteUser(context.Background(), 3)).To(Succeed())
			Expect(last.auth).To(Equal("Bearer abc"))
			Expect(last.method).To(Equal(http.MethodDelete))
			Expect(last.path).To(Equal("/api/user/3"))
		})

		It("prefers a token pinned on the context", func() {
			client.UseTokenSource(staticToken("abc"))
			ctx := apiclient.WithToken(context.Background(), "pinned")
			Expect(client.DeleteUser(ctx, 3)).To(Succeed())
			Expect(last.auth).To(Equal("Bearer pinned"))
		})

		It("propagates the request id from the context", func() {
			ctx := internal.ContextWithRequestID(context.Background(), "req-1")
			Expect(client.DeleteUser(ctx, 3)).To(Succeed())
			Expect(last.requestID).To(Equal("req-1"))
		})
	})

	Describe("error responses", func() {
		It("returns an APIError carrying status and body", func() {
			status = http.StatusUnauthorized
			payload = `{"message":"bad credentials"}`

			_, err := client.Login(context.Background(), "jdoe", "wrong")

			var apiErr *internal.APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(apiErr.Message()).To(Equal("bad credentials"))
			Expect(internal.IsStatus(err, http.StatusUnauthorized)).To(BeTrue())
		})

		It("counts the call by endpoint and status", func() {
			status = http.StatusNotFound
			Expect(client.DeleteUser(context.Background(), 9)).NotTo(Succeed())
			Expect(testutil.ToFloat64(m.BackendRequests.WithLabelValues("DELETE user", "404"))).To(Equal(1.0))
		})
	})

	Describe("decoding", func() {
		It("decodes a valid login response", func() {
			payload = `{"token":"t-1","user":{"id":5,"userName":"jdoe","roles":["USER"]}}`

			resp, err := client.Login(context.Background(), "jdoe", "secret")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Token).To(Equal("t-1"))
			Expect(resp.User.ID).To(Equal(int64(5)))

			var sent apiclient.LoginRequest
			Expect(json.Unmarshal(last.body, &sent)).To(Succeed())
			Expect(sent.UserName).To(Equal("jdoe"))
		})

		It("rejects a login response without a token", func() {
			payload = `{"user":{"id":5,"userName":"jdoe"}}`

			_, err := client.Login(context.Background(), "jdoe", "secret")
			var decodeErr *internal.DecodeError
			Expect(errors.As(err, &decodeErr)).To(BeTrue())
			Expect(decodeErr.Endpoint).To(Equal("POST auth/login"))
		})

		It("rejects malformed json", func() {
			payload = `{"user":`
			_, err := client.Me(apiclient.WithToken(context.Background(), "t"))
			var decodeErr *internal.DecodeError
			Expect(errors.As(err, &decodeErr)).To(BeTrue())
		})

		It("sends the token in the auth/me body", func() {
			payload = `{"user":{"id":5,"userName":"jdoe"}}`
			_, err := client.Me(apiclient.WithToken(context.Background(), "t-9"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(last.body)).To(ContainSubstring(`"token":"t-9"`))
		})

		It("validates every list element", func() {
			payload = `[{"id":1,"status":"Pending"},{"id":2,"status":"Lost"}]`
			_, err := client.InvestmentItems(context.Background())
			var decodeErr *internal.DecodeError
			Expect(errors.As(err, &decodeErr)).To(BeTrue())
		})

		It("returns an empty slice for an empty list", func() {
			payload = `[]`
			items, err := client.Requests(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(items).NotTo(BeNil())
			Expect(items).To(BeEmpty())
		})
	})

	Describe("mutations", func() {
		It("patches the request status with the decision", func() {
			Expect(client.DecideRequest(context.Background(), 12, approval.DecisionApprove)).To(Succeed())
			Expect(last.method).To(Equal(http.MethodPatch))
			Expect(last.path).To(Equal("/api/pcrequest/requests/12/status"))
			Expect(string(last.body)).To(MatchJSON(`{"status":"Approved"}`))
		})

		It("puts the projected status on the investment form", func() {
			Expect(client.UpdateInvestmentStatus(context.Background(), 12, approval.StatusUnderApproval)).To(Succeed())
			Expect(last.method).To(Equal(http.MethodPut))
			Expect(last.path).To(Equal("/api/investmentform/12"))
			Expect(string(last.body)).To(MatchJSON(`{"status":"Under-approval"}`))
		})

		It("posts privilege removals by user and privilege", func() {
			Expect(client.RemovePrivilege(context.Background(), 42, 7)).To(Succeed())
			Expect(last.path).To(Equal("/api/privilege/remove"))
			Expect(string(last.body)).To(MatchJSON(`{"userId":42,"privilegeId":7}`))
		})
	})

	Describe("Ping", func() {
		It("treats any HTTP answer as reachable", func() {
			status = http.StatusNotFound
			Expect(client.Ping(context.Background())).To(Succeed())
		})

		It("fails when nothing answers", func() {
			server.Close()
			Expect(client.Ping(context.Background())).NotTo(Succeed())
		})
	})
})
