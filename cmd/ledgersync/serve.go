package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/ledgersync/internal/handler"
	"github.com/josh-kwaku/ledgersync/internal/monitor"
	"github.com/josh-kwaku/ledgersync/internal/server"
	"github.com/josh-kwaku/ledgersync/internal/settings"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the notification gateway and checkout API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp("ledgersync")
			if err != nil {
				return err
			}
			return a.serve()
		},
	}
}

func (a *app) router() http.Handler {
	hub := monitor.NewHub()
	return server.NewRouter(server.Handlers{
		Webhook: handler.NewWebhookHandler(a.engine, a.dir, hub, handler.WebhookOptions{
			Tolerance:   a.cfg.WebhookTolerance,
			DumpPayload: a.cfg.WebhookDebugDumpEvent,
		}),
		Checkout: handler.NewCheckoutHandler(a.checkout),
		Admin:    handler.NewAdminHandler(a.catalog, a.settings),
		Monitor:  handler.NewMonitorHandler(hub, a.cfg.MonitorQueueSize),
	}, server.AdminCredentials{
		Username: a.cfg.AdminUsername,
		Password: a.cfg.AdminPassword,
	})
}

func (a *app) serve() error {
	if a.cfg.AdminPassword == "" {
		slog.Warn("ADMIN_PASSWORD is empty; admin routes will reject every request")
	}
	if _, err := a.dir.Master(); err != nil {
		slog.Warn("master ledger is not configured yet", "error", err)
	}

	addr := fmt.Sprintf(":%d", a.cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.router(),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      a.writeTimeout(),
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	reloadCtx, stopReload := context.WithCancel(context.Background())
	defer stopReload()
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go reloadOnSignal(reloadCtx, hup, a.settings)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started",
			"addr", addr,
			"master_alias", a.dir.MasterAlias(),
			"runtime_config", a.settings.Path(),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// writeTimeout leaves room for the longest bounded poll a notification or
// checkout request can run.
func (a *app) writeTimeout() time.Duration {
	longest := max(
		time.Duration(a.cfg.PollMaxAttempts)*a.cfg.PollInterval,
		time.Duration(a.cfg.PayerPollMaxAttempts)*a.cfg.PayerPollInterval,
	)
	return longest + 30*time.Second
}

type settingsReloader interface {
	Reload() (*settings.Document, error)
}

// reloadOnSignal re-reads the runtime settings every time hup fires, until
// ctx is done.
func reloadOnSignal(ctx context.Context, hup <-chan os.Signal, store settingsReloader) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			doc, err := store.Reload()
			if err != nil {
				slog.Error("runtime settings reload failed", "error", err)
				continue
			}
			slog.Info("runtime settings reloaded",
				"master_alias", doc.MasterAccountAlias,
				"accounts", len(doc.Accounts),
			)
		}
	}
}
