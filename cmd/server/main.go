// Package main provides the entry point for the service health gateway.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/TorkeTejas/bus-management-cc/internal/config"
	apierrors "github.com/TorkeTejas/bus-management-cc/internal/errors"
	"github.com/TorkeTejas/bus-management-cc/internal/errorlog"
	"github.com/TorkeTejas/bus-management-cc/internal/handler"
	"github.com/TorkeTejas/bus-management-cc/internal/health"
	"github.com/TorkeTejas/bus-management-cc/internal/metrics"
	"github.com/TorkeTejas/bus-management-cc/internal/proxy"
	"github.com/TorkeTejas/bus-management-cc/internal/registry"
	"github.com/TorkeTejas/bus-management-cc/internal/server"
	"github.com/TorkeTejas/bus-management-cc/internal/translator"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// bootstrap logger until the logging section is loaded
	logger := initLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), "stdout")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger = initLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer logger.Sync()

	logger.Info("starting service health gateway")

	logger.Info("configuration loaded",
		zap.Int("server_port", cfg.Server.Port),
		zap.Int("services", len(cfg.Registry.Services)),
		zap.Duration("health_interval", cfg.Health.Interval),
	)

	m := metrics.NewMetrics()
	m.SetHealthStatus(true)

	// Registry: config seed first, then the optional seed file
	reg := registry.New(cfg.Registry.Services, logger)
	if cfg.Registry.SeedFile != "" {
		seed, err := registry.LoadSeedFile(cfg.Registry.SeedFile)
		if err != nil {
			logger.Fatal("failed to load registry seed file", zap.Error(err))
		}
		reg.Apply(seed)
	}
	m.SetRegisteredServices(reg.Len())
	logger.Info("registry seeded", zap.Strings("services", reg.Names()))

	tr := translator.New(cfg.Messages)
	errs := errorlog.New(reg, m, logger)
	client := &http.Client{}

	monitor := health.NewMonitor(reg, health.NewStatusStore(), errs, tr, m, client, health.Config{
		ProbeTimeout: cfg.Health.ProbeTimeout,
		ProbePath:    cfg.Health.ProbePath,
	}, logger)
	px := proxy.NewProxy(reg, errs, tr, m, client, cfg.Proxy.Timeout, logger)

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	go health.NewLoop(monitor, cfg.Health.Interval, logger).Run(bgCtx)

	if cfg.Registry.Watch {
		watcher, err := registry.NewWatcher(cfg.Registry.SeedFile, reg, logger)
		if err != nil {
			logger.Fatal("failed to watch registry seed file", zap.Error(err))
		}
		go func() {
			if err := watcher.Run(bgCtx); err != nil {
				logger.Error("registry watcher stopped", zap.Error(err))
			}
		}()
	}

	var metricsServer *metrics.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
		logger.Info("metrics server started",
			zap.Int("port", cfg.Metrics.Port),
			zap.String("path", cfg.Metrics.Path),
		)
	}

	errorHandler := apierrors.NewHandler(logger)
	handlers := handler.NewHandlers(reg, monitor, errs, px, m, errorHandler, cfg.Errors.DefaultLimit, logger)
	httpServer := server.NewServer(cfg, handlers, errorHandler, tr, m, logger)
	httpServer.SetupRoutes()

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errChan <- err
		}
	}()

	logger.Info("HTTP server started", zap.Int("port", cfg.Server.Port))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.Error("server error", zap.Error(err))
	}

	logger.Info("initiating graceful shutdown")
	m.SetHealthStatus(false)
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown HTTP server", zap.Error(err))
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}

	logger.Info("service health gateway shutdown complete")
}

// initLogger initializes the zap logger.
func initLogger(logLevel, logFormat, output string) *zap.Logger {
	var level zapcore.Level
	switch logLevel {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if logFormat == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	if output == "" {
		output = "stdout"
	}

	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{output}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zcfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	return logger
}
