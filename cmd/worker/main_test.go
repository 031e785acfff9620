package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/kirillkom/facade-estimator/internal/config"
)

func TestRunRequiresLeadQueue(t *testing.T) {
	err := run(context.Background(), config.Config{}, slog.New(slog.DiscardHandler))
	if err == nil {
		t.Fatalf("expected an error without NATS_URL")
	}
}
