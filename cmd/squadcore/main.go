// Package main is the entry point for squadcore.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/samdwyer/squadcore/internal/config"
	"github.com/samdwyer/squadcore/internal/game"
	"github.com/samdwyer/squadcore/internal/gamedata"
	"github.com/samdwyer/squadcore/internal/telemetry"
)

func main() {
	// Load .env file for local development
	if err := godotenv.Load(); err != nil {
		// Not fatal - env vars might be set directly
		log.Printf("Note: .env file not loaded: %v", err)
	}

	cfg, err := config.Load(os.Getenv("SQUADCORE_CONFIG"))
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, closeLog := newLogger(cfg)
	defer closeLog()
	slog.SetDefault(logger)

	ctx := context.Background()

	if cfg.Telemetry {
		setupOTelEnv()
		shutdown, err := telemetry.Setup(ctx)
		if err != nil {
			log.Printf("Warning: telemetry setup failed: %v", err)
			log.Printf("Game will run without observability")
			telemetry.Disable()
		} else {
			defer func() {
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down telemetry: %v", err)
				}
			}()
		}
	} else {
		telemetry.Disable()
	}

	catalog, err := gamedata.LoadCatalog()
	if err != nil {
		log.Fatalf("Failed to load game data: %v", err)
	}

	session, err := game.NewSession(cfg, catalog, logger)
	if err != nil {
		log.Fatalf("Failed to set up encounter: %v", err)
	}

	g, err := game.New(session)
	if err != nil {
		log.Fatalf("Failed to initialize game: %v", err)
	}

	if err := g.Run(ctx); err != nil {
		log.Fatalf("Game error: %v", err)
	}
}

// newLogger writes structured logs to SQUADCORE_LOG_FILE. The terminal
// belongs to the game, so without a file logs are dropped.
func newLogger(cfg *config.Config) (*slog.Logger, func()) {
	opts := &slog.HandlerOptions{Level: cfg.Level()}
	path := os.Getenv("SQUADCORE_LOG_FILE")
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("Note: log file not opened: %v", err)
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}
	}
	return slog.New(slog.NewJSONHandler(f, opts)), func() { f.Close() }
}

// setupOTelEnv configures OTEL environment variables from our custom env vars.
func setupOTelEnv() {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://api.honeycomb.io")
	}

	apiKey := os.Getenv("HONEYCOMB_SQUADCORE_API_KEY")
	dataset := os.Getenv("HONEYCOMB_SQUADCORE_DATASET")
	if dataset == "" {
		dataset = "squadcore"
	}
	if apiKey != "" {
		os.Setenv("OTEL_EXPORTER_OTLP_HEADERS",
			fmt.Sprintf("x-honeycomb-team=%s,x-honeycomb-dataset=%s", apiKey, dataset))
	}
}
