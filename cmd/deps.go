package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gorm.io/gorm"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/apiclient"
	"github.com/frahmantamala/asset-portal/internal/approval"
	"github.com/frahmantamala/asset-portal/internal/asset"
	"github.com/frahmantamala/asset-portal/internal/core/events"
	"github.com/frahmantamala/asset-portal/internal/metrics"
	"github.com/frahmantamala/asset-portal/internal/notification"
	"github.com/frahmantamala/asset-portal/internal/privilege"
	"github.com/frahmantamala/asset-portal/internal/session"
	"github.com/frahmantamala/asset-portal/internal/storage"
	"github.com/frahmantamala/asset-portal/internal/user"
	"github.com/frahmantamala/asset-portal/pkg/logger"
)

// Dependencies is the fully wired client. One per process.
type Dependencies struct {
	Config     *internal.Config
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Bus        *events.EventBus
	DB         *gorm.DB
	Tokens     storage.TokenStore
	Client     *apiclient.Client
	Sessions   *session.Store
	Approvals  *approval.Service
	Privileges *privilege.Service
	Users      *user.Service
	Assets     *asset.Service
	Aggregator *notification.Aggregator
	Poller     *notification.Poller
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.InitWith(config.Observability.Logging.Format, config.Observability.Logging.Level, os.Stderr)
	lg := logger.LoggerWrapper()

	deps := &Dependencies{
		Config:  config,
		Logger:  lg,
		Metrics: metrics.New(),
		Bus:     events.NewEventBus(lg),
	}
	deps.traceEvents()

	if err := deps.initTokenStore(ctx); err != nil {
		return nil, err
	}

	client, err := apiclient.NewClient(apiclient.Config{
		BaseURL: config.Backend.BaseURL,
		Timeout: config.Backend.Timeout,
	}, lg, deps.Metrics)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Client = client

	deps.Sessions = session.NewStore(client, deps.Tokens, deps.Bus, lg)
	client.UseTokenSource(deps.Sessions)

	deps.Approvals = approval.NewService(client, deps.Metrics, lg)
	deps.Privileges = privilege.NewService(client, deps.Sessions, lg)
	deps.Users = user.NewService(client, lg)
	deps.Assets = asset.NewService(client, lg)
	deps.Aggregator = notification.NewAggregator(notification.DefaultSources(client), deps.Metrics, lg)
	deps.Poller = notification.NewPoller(deps.Aggregator, config.Notifications.PollInterval, deps.Bus, lg)

	return deps, nil
}

func (d *Dependencies) initTokenStore(ctx context.Context) error {
	if ephemeral {
		d.Tokens = storage.NewMemoryStore()
		return nil
	}

	db, err := storage.Open(ctx, d.Config.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize token storage: %w", err)
	}
	d.DB = db

	var tokens storage.TokenStore = storage.NewGormStore(db)
	key, err := d.Config.Storage.Key()
	if err != nil {
		d.Close()
		return err
	}
	if key != nil {
		tokens = storage.NewSealedStore(tokens, key)
	}
	d.Tokens = tokens
	return nil
}

// traceEvents logs what the session store asks the front end to do.
func (d *Dependencies) traceEvents() {
	trace := func(ctx context.Context, event events.Event) error {
		d.Logger.DebugContext(ctx, "event",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"payload", event.Payload())
		return nil
	}
	for _, t := range []string{events.TypeSessionChanged, events.TypeNavigationRequested, events.TypeToast} {
		d.Bus.Subscribe(t, trace)
	}
}

// restoreSession restores the persisted session and fails when nobody is signed in.
func (d *Dependencies) restoreSession(ctx context.Context) (session.State, error) {
	d.Sessions.Initialize(ctx)
	st := d.Sessions.State()
	if !st.Authenticated() {
		return st, fmt.Errorf("not logged in, run %q first: %w", "asset-portal login", internal.ErrNotAuthenticated)
	}
	return st, nil
}

func (d *Dependencies) Close() {
	if d.Poller != nil {
		d.Poller.Stop()
	}
	if d.DB == nil {
		return
	}
	if sqlDB, err := d.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			d.Logger.Error("storage close error", "error", err)
		}
	}
}
