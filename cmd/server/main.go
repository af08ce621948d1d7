package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/smartcity/firewatch/internal/alerts"
	"github.com/smartcity/firewatch/internal/auth"
	"github.com/smartcity/firewatch/internal/cameras"
	"github.com/smartcity/firewatch/internal/config"
	"github.com/smartcity/firewatch/internal/detect"
	"github.com/smartcity/firewatch/internal/orchestrator"
	"github.com/smartcity/firewatch/internal/server"
	"github.com/smartcity/firewatch/pkg/messaging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment")
	}

	cfg := config.Load()

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	registry := cameras.NewRegistry(cameras.DefaultFleet())
	ledger := alerts.NewLedger()
	detector := detect.NewClient(cfg.DetectionURL, cfg.DetectionTimeout)

	var publisher orchestrator.Publisher
	var events server.EventsStatus
	if cfg.NATSUrl != "" {
		natsClient, err := messaging.NewClient(messaging.Config{
			URL:            cfg.NATSUrl,
			Name:           "firewatch-server",
			ReconnectWait:  time.Second,
			MaxReconnects:  5,
			ConnectTimeout: 5 * time.Second,
		})
		if err != nil {
			slog.Error("failed to connect to NATS, events disabled", "error", err)
		} else {
			defer natsClient.Close()
			publisher = natsClient
			events = natsClient
		}
	}

	orch := orchestrator.New(orchestrator.Config{
		TickInterval:   cfg.TickInterval,
		TickStep:       cfg.TickStep,
		ProbeInterval:  cfg.ProbeInterval,
		MatchTolerance: cfg.MatchTolerance,
	}, registry, ledger, detector, publisher)

	authSvc := auth.NewService(cfg.JWTSecret, cfg.OperatorUser, cfg.OperatorPassword)
	srv := server.New(server.Config{
		AllowedOrigins: cfg.AllowedOrigins,
		Debug:          cfg.Debug,
		Events:         events,
	}, orch, authSvc)

	ctx, cancel := context.WithCancel(context.Background())
	orch.Start(ctx)

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Handler(),
	}

	go func() {
		slog.Info("listening", "port", cfg.Port, "detection_url", cfg.DetectionURL)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cancel()
	orch.Stop()
	srv.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
}
