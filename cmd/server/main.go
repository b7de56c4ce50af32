package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"caelus/backend/internal/ai"
	"caelus/backend/internal/api"
	"caelus/backend/internal/config"
	"caelus/backend/internal/logging"
	"caelus/backend/internal/observability"
	"caelus/backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		logrus.Fatalf("configure logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.OTelEnabled,
		Exporter:    cfg.OTelExporter,
		ServiceName: cfg.OTelServiceName,
	})
	if err != nil {
		logrus.Fatalf("init tracing: %v", err)
	}

	server, err := api.NewServer(api.Config{
		DB: store.Options{
			Driver: cfg.DBDriver,
			Path:   cfg.DBPath,
			DSN:    cfg.DBDSN,
			Silent: true,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		AIConfig: ai.Config{
			APIKey:     cfg.OpenAIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			ChatModel:  cfg.ChatModel,
			ImageModel: cfg.ImageModel,
			Timeout:    cfg.OpenAITimeout,
		},
		FallbackImageModel: cfg.FallbackImageModel,
		FallbackChatModel:  cfg.FallbackChatModel,
		DisableAI:          cfg.DisableAI,
		ServiceName:        cfg.OTelServiceName,
	})
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Infof("starting caelus backend on %s", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server exited: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("http shutdown")
	}
	if err := server.Close(); err != nil {
		logrus.WithError(err).Warn("close database")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("flush traces")
	}
}
