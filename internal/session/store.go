package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/apiclient"
	"github.com/frahmantamala/asset-portal/internal/auth"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/identity"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/privilege"
	"github.com/frahmantamala/asset-portal/internal/core/events"
	"github.com/frahmantamala/asset-portal/internal/storage"
)

const (
	LandingPath = "/dashboard"
	LoginPath   = "/login"
	ProfilePath = "/profile"
)

type Backend interface {
	Login(ctx context.Context, userName, password string) (*apiclient.LoginResponse, error)
	Me(ctx context.Context) (*identity.Identity, error)
	UpdateCredentials(ctx context.Context, update apiclient.CredentialsUpdate) (*identity.Identity, error)
	UserPrivileges(ctx context.Context, userID int64) ([]privilege.Grant, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store owns the current session. Create one per process and pass it explicitly.
type Store struct {
	backend Backend
	tokens  storage.TokenStore
	bus     Publisher
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.RWMutex
	state State

	subMu       sync.Mutex
	nextSubID   int
	subscribers map[int]func(State)
}

func NewStore(backend Backend, tokens storage.TokenStore, bus Publisher, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		backend:     backend,
		tokens:      tokens,
		bus:         bus,
		logger:      logger,
		now:         time.Now,
		subscribers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot that callers may keep and mutate freely.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Token lets the store act as the API client's token source.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// Subscribe registers fn for every state change and returns a function that removes it.
// fn runs on the goroutine that changed the state.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

// Initialize restores the session from the persisted token. It never fails; the outcome is
// only visible through State.
func (s *Store) Initialize(ctx context.Context) {
	s.set(ctx, func(st *State) { st.Initializing = true })

	token, err := s.tokens.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to load persisted token", "error", err)
		s.reset(ctx, true)
		return
	}
	if token == "" {
		s.reset(ctx, false)
		return
	}
	if tokenExpired(token, s.now()) {
		s.logger.Info("persisted token expired, discarding")
		s.reset(ctx, true)
		return
	}

	authCtx := apiclient.WithToken(ctx, token)
	me, err := s.backend.Me(authCtx)
	if err != nil {
		s.logger.Info("persisted token rejected", "error", err)
		s.reset(ctx, true)
		return
	}

	grants := s.fetchGrants(authCtx, me.ID)
	s.set(ctx, func(st *State) {
		*st = s.authenticated(me, token, grants)
	})
	s.logger.Debug("session restored", "user_id", me.ID)
}

// Login exchanges credentials for a token. On failure the state is untouched and the
// error is returned; a 401 is reported as ErrInvalidCredentials.
func (s *Store) Login(ctx context.Context, userName, password string) (*identity.Identity, error) {
	resp, err := s.backend.Login(ctx, userName, password)
	if err != nil {
		if internal.IsStatus(err, http.StatusUnauthorized) {
			return nil, internal.ErrInvalidCredentials.WithCause(err)
		}
		return nil, err
	}

	if err := s.tokens.Save(ctx, resp.Token); err != nil {
		s.logger.Warn("failed to persist token", "error", err)
	}

	me := resp.User
	grants := s.fetchGrants(apiclient.WithToken(ctx, resp.Token), me.ID)
	s.set(ctx, func(st *State) {
		*st = s.authenticated(&me, resp.Token, grants)
	})

	s.logger.Info("user logged in", "user_id", me.ID)
	s.publish(ctx, events.New(events.TypeNavigationRequested, events.Navigation{Path: LandingPath}))

	identityCopy := me
	return &identityCopy, nil
}

// Logout clears persisted and in-memory state. It never fails.
func (s *Store) Logout(ctx context.Context) {
	s.reset(ctx, true)
	s.logger.Info("user logged out")
	s.publish(ctx, events.New(events.TypeNavigationRequested, events.Navigation{Path: LoginPath}))
}

// UpdateCredentials sends a partial profile update. Only a successful response changes
// state or triggers navigation; every other outcome is returned as is.
func (s *Store) UpdateCredentials(ctx context.Context, patch CredentialsPatch) (*identity.Identity, error) {
	if !s.State().Authenticated() {
		return nil, internal.ErrNotAuthenticated
	}
	if appErr := patch.Validate(); appErr != nil {
		return nil, appErr
	}

	updated, err := s.backend.UpdateCredentials(ctx, patch.toRequest())
	if err != nil {
		return nil, err
	}

	s.set(ctx, func(st *State) {
		if st.Identity == nil {
			return
		}
		id := *updated
		st.Identity = &id
	})

	s.publish(ctx, events.New(events.TypeToast, events.Toast{Level: "success", Text: "Profile updated"}))
	s.publish(ctx, events.New(events.TypeNavigationRequested, events.Navigation{Path: ProfilePath}))
	return updated, nil
}

// RefreshPrivileges re-fetches the grants of the current identity.
func (s *Store) RefreshPrivileges(ctx context.Context) error {
	st := s.State()
	if !st.Authenticated() {
		return internal.ErrNotAuthenticated
	}

	grants, err := s.backend.UserPrivileges(apiclient.WithToken(ctx, st.Token), st.Identity.ID)
	if err != nil {
		return err
	}

	s.set(ctx, func(cur *State) {
		if cur.UserID() != st.Identity.ID {
			return
		}
		cur.Grants = grants
		cur.Privileges = auth.ActivePrivilegeNames(grants, s.now())
	})
	return nil
}

func (s *Store) fetchGrants(ctx context.Context, userID int64) []privilege.Grant {
	grants, err := s.backend.UserPrivileges(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to fetch privileges, continuing without", "user_id", userID, "error", err)
		return []privilege.Grant{}
	}
	return grants
}

func (s *Store) authenticated(me *identity.Identity, token string, grants []privilege.Grant) State {
	return State{
		Identity:   me,
		Token:      token,
		Grants:     grants,
		Privileges: auth.ActivePrivilegeNames(grants, s.now()),
	}
}

func (s *Store) reset(ctx context.Context, clearPersisted bool) {
	if clearPersisted {
		if err := s.tokens.Clear(ctx); err != nil {
			s.logger.Warn("failed to clear persisted token", "error", err)
		}
	}
	s.set(ctx, func(st *State) { *st = State{} })
}

func (s *Store) set(ctx context.Context, mutate func(*State)) {
	s.mu.Lock()
	mutate(&s.state)
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.subMu.Lock()
	subs := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snapshot.clone())
	}
	s.publish(ctx, events.New(events.TypeSessionChanged, snapshot))
}

func (s *Store) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
