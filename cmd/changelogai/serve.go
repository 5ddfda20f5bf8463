package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/keyz-man/changelogai-app/cmd/changelogai/handlers"
	"github.com/keyz-man/changelogai-app/internal/logging"
	"github.com/keyz-man/changelogai-app/internal/render"
)

// shutdownTimeout bounds how long in-flight requests may finish on exit.
const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and public pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, opts, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a)
		},
	}
}

// newHandler builds the router for a.
func newHandler(a *app) (http.Handler, error) {
	renderer, err := render.NewRenderer()
	if err != nil {
		return nil, err
	}

	deps := handlers.Deps{
		Store:       a.store,
		Projects:    a.projects,
		Changelogs:  a.changelogs,
		Prober:      a.llm,
		Renderer:    renderer,
		Metrics:     a.metrics,
		EnableReset: a.cfg.Dev.EnableReset,
	}
	if a.cfg.Metrics.Enabled {
		deps.MetricsPath = a.cfg.Metrics.Path
	}
	return handlers.NewRouter(deps), nil
}

// serve runs the server until ctx is cancelled, then drains it.
func serve(ctx context.Context, a *app) error {
	handler, err := newHandler(a)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr(),
		Handler:           handler,
		ReadTimeout:       a.cfg.Server.ReadTimeout(),
		ReadHeaderTimeout: a.cfg.Server.ReadTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("server listening", map[string]interface{}{
			"addr":    srv.Addr,
			"store":   a.cfg.Store.Backend,
			"reset":   a.cfg.Dev.EnableReset,
			"metrics": a.cfg.Metrics.Enabled,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
