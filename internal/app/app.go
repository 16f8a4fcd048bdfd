// Package app provides application lifecycle management for the BCR API server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stackb/bcr-api/internal/config"
)

// RegistryApp encapsulates all components needed to run the BCR API server
// It provides lifecycle management and graceful shutdown capabilities
type RegistryApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start starts the HTTP server and, when configured, warms the registry cache in the background.
// This method blocks until the HTTP server stops or encounters an error
func (app *RegistryApp) Start() error {
	if app.config != nil && app.config.Registry.Prefetch {
		go app.prefetch()
	}

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// prefetch loads the registry so that the first request does not pay for the download.
// A failure is only logged; the next request retries the load.
func (app *RegistryApp) prefetch() {
	start := time.Now()
	reg, err := app.components.Registry.Get(app.ctx)
	if err != nil {
		slog.Warn("Registry prefetch failed",
			"source", app.components.Registry.Source(),
			"error", err,
		)
		return
	}
	slog.Info("Registry prefetched",
		"source", app.components.Registry.Source(),
		"modules", len(reg.Modules),
		"duration", time.Since(start),
	)
}

// Stop gracefully stops the application with the given timeout
func (app *RegistryApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	// Cancel the application context
	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	// Graceful HTTP server shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *RegistryApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *RegistryApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
