package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"inkboard.dev/board/internal/app"
	"inkboard.dev/board/internal/appconf"
	"inkboard.dev/board/internal/logging"
	"inkboard.dev/board/internal/restapi"
	"inkboard.dev/board/internal/webui"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the most recent artifact over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd, func(c *appconf.Config) {
				if cmd.Flags().Changed("port") {
					c.Serve.Port = port
				}
			})
			if err != nil {
				return err
			}
			application, err := opts.newApplication(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Serve.Port))
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			return serve(ctx, application, ln)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")
	return cmd
}

// serve runs the HTTP server on ln until ctx is cancelled, then drains
// in-flight requests.
func serve(ctx context.Context, application *app.Application, ln net.Listener) error {
	logger := application.Logger

	api := restapi.NewRestAPI(application)
	defer api.Shutdown()

	mux := http.NewServeMux()
	api.SetRoutes(mux)
	webui.New(application).SetWebUIRoutes(mux)

	handler, err := api.Handler(mux)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		logging.LogOperation(logger, "server_started", slog.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.LogOperation(logger, "server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
