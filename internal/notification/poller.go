package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/asset-portal/internal/core/events"
	"github.com/frahmantamala/asset-portal/internal/session"
)

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// SessionSource is the part of the session store the poller follows.
type SessionSource interface {
	State() session.State
	Subscribe(fn func(session.State)) func()
}

// Poller recomputes notifications on a fixed interval while an identity is signed in.
// It starts when a session is established and stops on logout or when its parent
// context ends. Results of a cancelled cycle are dropped.
type Poller struct {
	agg      *Aggregator
	interval time.Duration
	bus      Publisher
	logger   *slog.Logger

	mu      sync.Mutex
	parent  context.Context
	cancel  context.CancelFunc
	gen     uint64
	userID  int64
	viewer  session.State
	latest  []Notification
	wg      sync.WaitGroup
	subs    []func([]Notification)
	stopped bool
}

func NewPoller(agg *Aggregator, interval time.Duration, bus Publisher, logger *slog.Logger) *Poller {
	return &Poller{
		agg:      agg,
		interval: interval,
		bus:      bus,
		logger:   logger,
	}
}

// Bind ties the poller to the session lifecycle until ctx ends. The returned function
// detaches it and stops any running cycle; it is safe to call more than once.
func (p *Poller) Bind(ctx context.Context, sessions SessionSource) func() {
	p.mu.Lock()
	p.parent = ctx
	p.stopped = false
	p.mu.Unlock()

	unsubscribe := sessions.Subscribe(p.OnSession)
	p.OnSession(sessions.State())

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			p.Stop()
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			unsubscribe()
			p.Stop()
		})
	}
}

// Subscribe registers fn for every delivered result.
func (p *Poller) Subscribe(fn func([]Notification)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, fn)
}

// Latest returns the most recently delivered notifications.
func (p *Poller) Latest() []Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Notification(nil), p.latest...)
}

// OnSession reacts to a session change.
func (p *Poller) OnSession(st session.State) {
	if st.Initializing {
		return
	}
	if !st.Authenticated() {
		p.halt()
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewer = st
	if p.cancel != nil && p.userID == st.UserID() {
		return
	}
	if p.parent == nil || p.parent.Err() != nil {
		return
	}
	p.startLocked(st.UserID())
}

// Stop cancels the running cycle and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.halt()
}

func (p *Poller) halt() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
	p.userID = 0
	p.latest = nil
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Poller) startLocked(userID int64) {
	if p.stopped {
		return
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	gen := p.gen
	ctx, cancel := context.WithCancel(p.parent)
	p.cancel = cancel
	p.userID = userID

	p.logger.Debug("notification poller started", "user_id", userID, "interval", p.interval)

	p.wg.Add(1)
	go p.loop(ctx, gen)
}

func (p *Poller) loop(ctx context.Context, gen uint64) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.cycle(ctx, gen)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) cycle(ctx context.Context, gen uint64) {
	p.mu.Lock()
	viewer := p.viewer
	p.mu.Unlock()

	result := p.agg.Compute(ctx, viewer)

	p.mu.Lock()
	if gen != p.gen || ctx.Err() != nil {
		p.mu.Unlock()
		p.logger.Debug("dropping stale notification result")
		return
	}
	p.latest = result
	subs := append(([]func([]Notification))(nil), p.subs...)
	p.mu.Unlock()

	for _, fn := range subs {
		fn(append([]Notification(nil), result...))
	}
	if p.bus != nil {
		if err := p.bus.Publish(ctx, events.New(events.TypeNotificationsUpdated, result)); err != nil {
			p.logger.Warn("failed to publish notifications", "error", err)
		}
	}
}
