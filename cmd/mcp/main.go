package main

import (
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/facade-estimator/internal/adapters/mcp"
	"github.com/kirillkom/facade-estimator/internal/config"
	"github.com/kirillkom/facade-estimator/internal/core/estimate"
	"github.com/kirillkom/facade-estimator/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	// stdout carries the protocol.
	logger := logging.NewLogger(os.Stderr, "mcp", cfg.LogLevel)
	slog.SetDefault(logger)

	pricing := estimate.DefaultPricing()
	if cfg.PricingConfigPath != "" {
		loaded, err := estimate.LoadPricing(cfg.PricingConfigPath)
		if err != nil {
			logger.Error("pricing_load_failed", "path", cfg.PricingConfigPath, "error", err)
			os.Exit(1)
		}
		pricing = loaded
	}

	s := mcpadapter.NewServer(estimate.NewDeriver(pricing))
	if err := server.ServeStdio(s); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
