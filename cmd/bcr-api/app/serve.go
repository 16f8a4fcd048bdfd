package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	registryapp "github.com/stackb/bcr-api/internal/app"
	"github.com/stackb/bcr-api/internal/config"
	"github.com/stackb/bcr-api/internal/telemetry"
	"github.com/stackb/bcr-api/internal/versions"
)

const defaultGracefulTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the BCR API server",
		Long: `Start the BCR API server.

Configuration is read from an optional YAML file (--config). Flags and
BCR_API_* environment variables override values from the file, for example
BCR_API_REGISTRY_URL or BCR_API_ADDRESS.`,
		RunE: runServe,
	}

	cmd.Flags().String("address", config.DefaultAddress, "Address to listen on")
	cmd.Flags().Bool("prefetch", false, "Load the registry at start-up instead of on the first request")

	bindFlag(cmd.Flags().Lookup("address"), "address")
	bindFlag(cmd.Flags().Lookup("prefetch"), "registry.prefetch")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.Info("Starting BCR API server",
		"version", versions.Version,
		"address", cfg.GetAddress(),
		"registry_url", cfg.Registry.GetURL(),
		"prefetch", cfg.Registry.Prefetch,
	)

	if cfg.Telemetry != nil && cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = versions.Version
	}
	tel, err := telemetry.New(ctx,
		telemetry.WithTelemetryConfig(cfg.Telemetry),
		telemetry.WithRegistrySource(cfg.Registry.GetURL()),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown telemetry", "error", err)
		}
	}()

	opts := []registryapp.RegistryAppOptions{
		registryapp.WithConfig(cfg),
		registryapp.WithAddress(cfg.GetAddress()),
		registryapp.WithMetricsHandler(tel.MetricsHandler()),
	}
	if cfg.Telemetry != nil && cfg.Telemetry.Enabled {
		opts = append(opts,
			registryapp.WithMeterProvider(tel.MeterProvider()),
			registryapp.WithTracerProvider(tel.TracerProvider()),
		)
	}

	app, err := registryapp.NewRegistryApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start()
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		slog.Info("Received signal", "signal", sig.String())
	}

	return app.Stop(defaultGracefulTimeout)
}
