package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/asset-portal/api"
	"github.com/frahmantamala/asset-portal/internal/account"
	"github.com/frahmantamala/asset-portal/internal/approval"
	"github.com/frahmantamala/asset-portal/internal/asset"
	"github.com/frahmantamala/asset-portal/internal/guard"
	"github.com/frahmantamala/asset-portal/internal/notification"
	"github.com/frahmantamala/asset-portal/internal/privilege"
	"github.com/frahmantamala/asset-portal/internal/storage"
	"github.com/frahmantamala/asset-portal/internal/transport"
	"github.com/frahmantamala/asset-portal/internal/transport/rest"
	"github.com/frahmantamala/asset-portal/internal/user"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "portal",
	Short: "Serve the portal pages over HTTP",
	Long:  `Restore the persisted session, start the notification poller and serve the guarded portal pages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer(cmd.Context())
	},
}

func startHTTPServer(ctx context.Context) error {
	if _, err := api.Load(ctx); err != nil {
		return err
	}

	deps, err := initializeDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Server.Port),
		Handler:           setupRoutes(deps),
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// the guard answers 503 on protected pages until the restore finishes
	go deps.Sessions.Initialize(ctx)
	detach := deps.Poller.Bind(ctx, deps.Sessions)
	defer detach()

	serverErr := make(chan error, 1)
	go func() {
		deps.Logger.Info("starting HTTP server", "address", server.Addr, "backend", deps.Config.Backend.BaseURL)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		deps.Logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	deps.Logger.Info("server stopped")
	return nil
}

func setupRoutes(deps *Dependencies) http.Handler {
	base := transport.NewBaseHandler(deps.Logger)

	checks := map[string]rest.Check{
		"backend": deps.Client.Ping,
	}
	if deps.DB != nil {
		db := deps.DB
		checks["storage"] = func(ctx context.Context) error { return storage.Ping(ctx, db) }
	}

	handlers := rest.Handlers{
		Account:       account.NewHandler(base, deps.Sessions, deps.Poller),
		Approvals:     approval.NewHandler(base, deps.Approvals),
		Privileges:    privilege.NewHandler(base, deps.Privileges),
		Users:         user.NewHandler(base, deps.Users),
		Assets:        asset.NewHandler(base, deps.Assets),
		Notifications: notification.NewHandler(base, deps.Aggregator),
	}

	cfg := rest.RouterConfig{
		Server:        deps.Config.Server,
		Production:    deps.Config.Env == "production",
		Metrics:       deps.Metrics,
		MetricsConfig: deps.Config.Observability.Metrics,
	}

	g := guard.New(guard.PortalRoutes(), deps.Metrics, deps.Logger)
	return rest.NewRouter(cfg, handlers, g, deps.Sessions, rest.NewHealthHandler(checks), deps.Logger)
}
