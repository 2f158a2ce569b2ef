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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/loganlanou/shipstation-rates/internal/shipstation"
	"github.com/loganlanou/shipstation-rates/service"
	"github.com/loganlanou/shipstation-rates/storage"
)

func main() {
	config, err := service.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(os.Stderr, config.LogLevel, config.LogFormat)
	slog.SetDefault(logger)
	logger.Debug("debug logging enabled")

	db, err := storage.New(config.DBPath)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := service.NewRegistry()
	metrics := shipstation.NewMetrics(registry)

	provider, closeProvider, err := service.NewProvider(ctx, config.Shipping, metrics, logger)
	if err != nil {
		logger.Error("failed to initialize rate provider", "error", err)
		os.Exit(1)
	}
	defer closeProvider()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			logger.Info("request handled",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration", time.Since(start),
				"ip", c.RealIP(),
			)

			return err
		}
	})

	svc := service.New(db, config, provider, registry, service.WithLogger(logger))
	svc.RegisterRoutes(e)

	addr := fmt.Sprintf(":%s", config.Port)
	logger.Info("shipping rate service starting",
		"url", fmt.Sprintf("http://localhost:%s", config.Port),
		"port", config.Port,
		"environment", config.Environment,
		"database", config.DBPath,
		"provider", config.Shipping.Provider,
	)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
