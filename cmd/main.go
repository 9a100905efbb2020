package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/angeloszaimis/random-image/config"
	"github.com/angeloszaimis/random-image/internal/counts"
	"github.com/angeloszaimis/random-image/internal/handler"
	"github.com/angeloszaimis/random-image/internal/healthcheck"
	"github.com/angeloszaimis/random-image/internal/httpserver"
	"github.com/angeloszaimis/random-image/internal/metrics"
	"github.com/angeloszaimis/random-image/internal/selector"
	"github.com/angeloszaimis/random-image/internal/ttlcache"
	"github.com/angeloszaimis/random-image/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.BufferSize, log)
		collector.Start(ctx)
	}

	client := &http.Client{Timeout: config.Duration(cfg.Counts.HTTPTimeout)}

	provider, err := createProvider(cfg, client, log, collector)
	if err != nil {
		log.Error("Failed to create count provider",
			slog.String("source", cfg.Counts.Source),
			slog.Any("err", err))
		os.Exit(1)
	}

	imageHandler := handler.NewImageHandler(log, provider,
		selector.New(selector.NewCryptoSource(), cfg.Images.BasePath),
		collector, cfg.Server.Environment)

	monitor := healthcheck.NewMonitor(provider, log)
	if cfg.Counts.Source != config.SourceStatic {
		go monitor.Run(ctx, config.Duration(cfg.Health.WarmInterval))
	}

	router := setupRouter(cfg.Server.Endpoint, imageHandler, monitor, collector, provider.Name())

	srv, err := httpserver.New(cfg.Server.Address, router)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("Starting random image service",
		slog.String("address", srv.Addr()),
		slog.String("endpoint", cfg.Server.Endpoint),
		slog.String("source", provider.Name()),
		slog.Bool("metrics", collector != nil))

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting server", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func createProvider(cfg *config.Config, client *http.Client, log *slog.Logger, collector *metrics.Collector) (counts.Provider, error) {
	clock := ttlcache.SystemClock()

	switch cfg.Counts.Source {
	case config.SourceStatic:
		return counts.NewStatic(cfg.StaticTable()), nil
	case config.SourceRemote:
		remote := cfg.Counts.Remote
		return counts.NewRemote(counts.RemoteOptions{
			APIURL:           remote.APIURL,
			Owner:            remote.Owner,
			Repo:             remote.Repo,
			Branch:           remote.Branch,
			Root:             remote.Root,
			Token:            remote.Token,
			TTL:              config.Duration(remote.TTL),
			BreakerThreshold: remote.BreakerThreshold,
			BreakerTimeout:   config.Duration(remote.BreakerTimeout),
		}, client, clock, log, collector), nil
	case config.SourceFile:
		return counts.NewFile(counts.FileOptions{
			URL:    cfg.Counts.File.URL,
			Origin: cfg.Counts.File.Origin,
			TTL:    config.Duration(cfg.Counts.File.TTL),
		}, client, clock, log, collector), nil
	default:
		return nil, fmt.Errorf("unknown count source %q", cfg.Counts.Source)
	}
}
