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

	"github.com/kirillkom/facade-estimator/internal/config"
	"github.com/kirillkom/facade-estimator/internal/core/domain"
	"github.com/kirillkom/facade-estimator/internal/core/ports"
	"github.com/kirillkom/facade-estimator/internal/core/usecase"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/queue/nats"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/facade-estimator/internal/observability/logging"
	"github.com/kirillkom/facade-estimator/internal/observability/metrics"
)

// The worker takes leads off the queue and hands them to sales.
func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("worker_failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if cfg.NATSURL == "" {
		return errors.New("worker needs NATS_URL")
	}

	var store ports.LeadStore
	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open lead store: %w", err)
		}
		defer db.Close()
		repo := postgres.NewLeadRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("lead store schema: %w", err)
		}
		store = repo
	}
	var intake ports.LeadIntake = usecase.NewLeadIntakeUseCase(store)

	queue, err := nats.New(cfg.NATSURL, cfg.NATSLeadSubject)
	if err != nil {
		return fmt.Errorf("init lead queue: %w", err)
	}
	defer queue.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", queue.Subject(), "lead_store", store != nil)
	err = queue.SubscribeLeads(ctx, func(handlerCtx context.Context, lead domain.Lead) error {
		start := time.Now()
		gating := string(lead.GatingMode)
		workerMetrics.StartLead()
		if !lead.SubmittedAt.IsZero() {
			workerMetrics.ObserveFollowUpLag("worker", gating, start.Sub(lead.SubmittedAt))
		}
		if lead.Range != nil {
			workerMetrics.ObserveQuotedRange("worker", gating, lead.Range.Max)
		}

		intakeCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
		defer cancel()
		outcome, err := intake.Intake(intakeCtx, lead)
		workerMetrics.FinishLead("worker", gating, string(outcome), time.Since(start))
		return err
	})
	if err != nil {
		return fmt.Errorf("subscribe leads: %w", err)
	}
	return nil
}
