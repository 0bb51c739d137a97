package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/api"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/config"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/hermes"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/logging"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/store/backend"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, os.Stdout)

	slog.Info("samplesd starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := backend.Open(ctx, backend.KindAuto, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		slog.Error("failed to open sample store", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("sample store opened", "backend", db.Kind, "target", db.Target)

	// NATS is optional; without it validation events are just not published.
	var publisher hermes.Publisher
	if cfg.NatsURL != "" {
		hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			db.Close()
			os.Exit(1)
		}
		defer hermesClient.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
		publisher = hermesClient

		if err := hermesClient.Subscribe(hermes.SubjectSamplesImported, func(_ string, data []byte) {
			slog.Info("dataset import announced", "event", string(data))
		}); err != nil {
			slog.Warn("failed to subscribe to import events", "error", err)
		}
	} else {
		slog.Warn("NATS not configured, running without events")
	}

	if cfg.APIToken == "" {
		slog.Warn("SAMPLESD_API_TOKEN not set, sample routes are unauthenticated")
	}

	srv := api.NewServer(cfg.Port, cfg.APIToken, db, publisher, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	if publisher != nil {
		if err := publisher.Publish("textcad.samplesd.registered", map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"port":      cfg.Port,
		}); err != nil {
			slog.Warn("failed to publish registration", "error", err)
		}
	}

	slog.Info("samplesd ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("samplesd stopped")
}
