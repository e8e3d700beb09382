package notification_test

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/frahmantamala/asset-portal/internal/core/datamodel/approval"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/asset"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/identity"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/message"
	"github.com/frahmantamala/asset-portal/internal/metrics"
	"github.com/frahmantamala/asset-portal/internal/notification"
	"github.com/frahmantamala/asset-portal/internal/session"
	"github.com/frahmantamala/asset-portal/pkg/logger"
)

func TestNotification(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Notification Suite")
}

type mockBackend struct {
	mu          sync.Mutex
	messages    []message.Message
	items       []approval.Subject
	requests    []approval.Subject
	assets      []asset.Asset
	failSources map[string]error
	calls       int
}

func (m *mockBackend) fail(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.failSources[name]
}

func (m *mockBackend) MyMessages(_ context.Context) ([]message.Message, error) {
	if err := m.fail("messages"); err != nil {
		return nil, err
	}
	return m.messages, nil
}

func (m *mockBackend) InvestmentItems(_ context.Context) ([]approval.Subject, error) {
	if err := m.fail("investments"); err != nil {
		return nil, err
	}
	return m.items, nil
}

func (m *mockBackend) Requests(_ context.Context) ([]approval.Subject, error) {
	if err := m.fail("requests"); err != nil {
		return nil, err
	}
	return m.requests, nil
}

func (m *mockBackend) Assets(_ context.Context) ([]asset.Asset, error) {
	if err := m.fail("assets"); err != nil {
		return nil, err
	}
	return m.assets, nil
}

func (m *mockBackend) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func viewer(role identity.RoleName) session.State {
	return session.State{
		Identity: &identity.Identity{ID: 5, UserName: "jdoe", Roles: []identity.RoleName{role}},
		Token:    "t",
	}
}

func seededBackend() *mockBackend {
	past := time.Now().Add(-48 * time.Hour)
	return &mockBackend{
		messages: []message.Message{
			{ID: 1, From: "hr", Subject: "Welcome"},
			{ID: 2, From: "it", Subject: "Old news", Read: true},
		},
		items: []approval.Subject{
			{ID: 10, Status: approval.StatusPending, DueDate: &past},
			{ID: 11, Status: approval.StatusPending},
			{ID: 12, Status: approval.StatusApproved},
		},
		requests: []approval.Subject{
			{ID: 20, Status: approval.StatusApproved, RequestedBy: 5},
			{ID: 21, Status: approval.StatusApproved, RequestedBy: 6},
		},
		assets: []asset.Asset{
			{ID: 30, SerialNumber: "SN-30", Status: asset.StatusInMaintenance, AssignedTo: 5},
			{ID: 31, SerialNumber: "SN-31", Status: asset.StatusInService, AssignedTo: 5, Approved: true},
			{ID: 32, SerialNumber: "SN-32", Status: asset.StatusInMaintenance, AssignedTo: 9},
		},
		failSources: map[string]error{},
	}
}

func priorities(ns []notification.Notification) []int {
	out := make([]int, len(ns))
	for i, n := range ns {
		out[i] = n.Priority
	}
	return out
}

var _ = Describe("Aggregator", func() {
	var (
		backend *mockBackend
		m       *metrics.Metrics
		agg     *notification.Aggregator
	)

	BeforeEach(func() {
		backend = seededBackend()
		m = metrics.New()
		agg = notification.NewAggregator(notification.DefaultSources(backend), m, logger.Discard())
	})

	It("derives a sorted list for an approver", func() {
		result := agg.Compute(context.Background(), viewer(identity.RoleManager))

		Expect(priorities(result)).To(Equal([]int{
			notification.PriorityOverdueInvestment,
			notification.PriorityPendingInvestment,
			notification.PriorityAssetInMaintenance,
			notification.PriorityUnreadMessage,
			notification.PriorityAssetApproved,
			notification.PriorityRequestApproved,
		}))
		Expect(result[0].Type).To(Equal(notification.LevelUrgent))
		Expect(result[0].RefID).To(Equal(int64(10)))
	})

	It("hides pending items from non-approvers", func() {
		result := agg.Compute(context.Background(), viewer(identity.RoleUser))
		for _, n := range result {
			Expect(n.Category).NotTo(Equal(notification.CategoryInvestment))
		}
	})

	It("drops a failing source and keeps the rest", func() {
		backend.failSources["assets"] = errors.New("down")

		result := agg.Compute(context.Background(), viewer(identity.RoleManager))

		Expect(priorities(result)).To(Equal([]int{
			notification.PriorityOverdueInvestment,
			notification.PriorityPendingInvestment,
			notification.PriorityUnreadMessage,
			notification.PriorityRequestApproved,
		}))
		Expect(testutil.ToFloat64(m.NotificationFailures.WithLabelValues("assets"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.NotificationsProduced)).To(Equal(4.0))
	})

	It("returns an empty list when every source fails", func() {
		for _, name := range []string{"messages", "investments", "requests", "assets"} {
			backend.failSources[name] = errors.New("down")
		}
		result := agg.Compute(context.Background(), viewer(identity.RoleManager))
		Expect(result).NotTo(BeNil())
		Expect(result).To(BeEmpty())
	})

	It("does not de-duplicate", func() {
		backend.messages = append(backend.messages, backend.messages[0])
		result := agg.Compute(context.Background(), viewer(identity.RoleUser))

		count := 0
		for _, n := range result {
			if n.Category == notification.CategoryMessage {
				count++
			}
		}
		Expect(count).To(Equal(2))
	})
})

type fakeSessions struct {
	mu    sync.Mutex
	state session.State
	subs  []func(session.State)
}

func (f *fakeSessions) State() session.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSessions) Subscribe(fn func(session.State)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
	return func() {}
}

func (f *fakeSessions) set(st session.State) {
	f.mu.Lock()
	f.state = st
	subs := append(([]func(session.State))(nil), f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}

var _ = Describe("Poller", func() {
	var (
		backend  *mockBackend
		sessions *fakeSessions
		poller   *notification.Poller
		ctx      context.Context
		cancel   context.CancelFunc
	)

	BeforeEach(func() {
		backend = seededBackend()
		sessions = &fakeSessions{}
		agg := notification.NewAggregator(notification.DefaultSources(backend), nil, logger.Discard())
		poller = notification.NewPoller(agg, 20*time.Millisecond, nil, logger.Discard())
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
		poller.Stop()
	})

	It("stays idle while nobody is signed in", func() {
		poller.Bind(ctx, sessions)
		Consistently(backend.callCount, 60*time.Millisecond).Should(BeZero())
	})

	It("starts on login and delivers results", func() {
		delivered := make(chan []notification.Notification, 16)
		poller.Subscribe(func(ns []notification.Notification) { delivered <- ns })
		poller.Bind(ctx, sessions)

		sessions.set(viewer(identity.RoleManager))

		Eventually(delivered).Should(Receive(Not(BeEmpty())))
		Expect(poller.Latest()).NotTo(BeEmpty())
	})

	It("recomputes on every tick", func() {
		poller.Bind(ctx, sessions)
		sessions.set(viewer(identity.RoleUser))
		Eventually(backend.callCount).Should(BeNumerically(">=", 8))
	})

	It("stops polling and clears results on logout", func() {
		poller.Bind(ctx, sessions)
		sessions.set(viewer(identity.RoleUser))
		Eventually(poller.Latest).ShouldNot(BeEmpty())

		sessions.set(session.State{})

		Expect(poller.Latest()).To(BeEmpty())
		calls := backend.callCount()
		Consistently(backend.callCount, 80*time.Millisecond).Should(Equal(calls))
	})

	It("stops when the parent context ends", func() {
		poller.Bind(ctx, sessions)
		sessions.set(viewer(identity.RoleUser))
		Eventually(backend.callCount).Should(BeNumerically(">", 0))

		cancel()
		Eventually(func() int {
			before := backend.callCount()
			time.Sleep(50 * time.Millisecond)
			return backend.callCount() - before
		}).Should(BeZero())
	})

	It("releases its context watcher on detach", func() {
		before := runtime.NumGoroutine()
		for i := 0; i < 50; i++ {
			detach := poller.Bind(ctx, sessions)
			detach()
			detach()
		}
		Eventually(runtime.NumGoroutine).Should(BeNumerically("<=", before+2))
	})

	It("keeps a rebound poller running after an earlier detach", func() {
		detach := poller.Bind(ctx, sessions)
		detach()

		poller.Bind(ctx, sessions)
		sessions.set(viewer(identity.RoleUser))
		Eventually(backend.callCount).Should(BeNumerically(">=", 8))
	})
})
