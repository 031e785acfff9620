package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/facade-estimator/internal/adapters/http"
	"github.com/kirillkom/facade-estimator/internal/bootstrap"
	"github.com/kirillkom/facade-estimator/internal/config"
	"github.com/kirillkom/facade-estimator/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, stop, cfg, logger)
	stop()
	if err != nil {
		logger.Error("api_failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg config.Config, logger *slog.Logger) error {
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	deadlines := httpadapter.Deadlines{
		Analyze:   app.Budgets.Text,
		Transform: app.Budgets.Image,
		Quote:     app.Budgets.Text + app.Budgets.Image,
	}
	router, err := httpadapter.NewRouter(cfg, httpadapter.Services{
		Analyzer:    app.Analyzer,
		Transformer: app.Transform,
		Quotes:      app.Quotes,
		Deriver:     app.Deriver,
		Exporter:    app.Exporter,
		Providers:   app.Registry,
		Metrics:     app.Metrics,
		Deadlines:   deadlines,
	})
	if err != nil {
		return fmt.Errorf("init router: %w", err)
	}

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: deadlines.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort, "write_timeout", server.WriteTimeout)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
