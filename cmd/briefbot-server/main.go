package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briefbot/briefbot/internal/api"
	"github.com/briefbot/briefbot/internal/cache"
	"github.com/briefbot/briefbot/internal/config"
	"github.com/briefbot/briefbot/internal/httpclient"
	"github.com/briefbot/briefbot/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	logger.Info("starting briefbot-server",
		"port", cfg.Server.Port, "log_level", cfg.Server.LogLevel,
		"model_policy", cfg.Credentials.ModelPolicy, "cache_dir", cfg.Cache.Dir)

	store := cache.NewStore(cfg.Cache.Dir, logger)
	httpc := httpclient.NewClient(logger)
	creds := pipeline.Credentials{
		OpenAIAPIKey:      cfg.Credentials.OpenAIAPIKey,
		XAIAPIKey:         cfg.Credentials.XAIAPIKey,
		OpenAIModelPolicy: cache.ModelPolicy(cfg.Credentials.ModelPolicy),
		XAIModelPolicy:    cache.ModelPolicy(cfg.Credentials.ModelPolicy),
		OpenAIPin:         cfg.Credentials.OpenAIPin,
		XAIPin:            cfg.Credentials.XAIPin,
	}

	router := api.SetupRouter(store, httpc, creds, logger, cfg.Server.EnableSwagger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logger.Info("received signal, starting graceful shutdown", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("http server shutdown error", "error", err)
			server.Close()
		}
		logger.Info("graceful shutdown complete")
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
