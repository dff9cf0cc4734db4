// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/tunecast/tunecast/internal/api/rest"
	"github.com/tunecast/tunecast/internal/app/auth"
	"github.com/tunecast/tunecast/internal/app/catalog"
	"github.com/tunecast/tunecast/internal/app/dispatch"
	"github.com/tunecast/tunecast/internal/app/relay"
	"github.com/tunecast/tunecast/internal/infra/config"
	"github.com/tunecast/tunecast/internal/infra/logger"
	"github.com/tunecast/tunecast/internal/infra/store"
)

var (
	app        = kingpin.New("tunecast-server", "tunecast remote playback server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	// Initialize logger from flags first so config loading is logged
	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	// Switch to the config's logging section unless flags overrode it
	if !*verbose && *logfile == "" {
		if err := logger.Init(logger.Config{
			Output: cfg.Logging.Output,
			Level:  cfg.Logging.Level,
			File:   cfg.Logging.File,
		}); err != nil {
			zlog.Fatal().Msgf("Failed to initialize logger: %v", err)
		}
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open account store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			zlog.Error().Msgf("Failed to close account store: %v", err)
		}
	}()

	resolver, err := catalog.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to create catalog providers: %w", err)
	}

	authn, err := auth.New(cfg.Auth.TokenSecret, cfg.TokenTTL())
	if err != nil {
		return fmt.Errorf("failed to create authenticator: %w", err)
	}

	registry := relay.NewRegistry(st)
	dispatcher := dispatch.New(st, registry, resolver)
	api := rest.New(cfg, st, authn, registry, dispatcher)

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(api, &http2.Server{}),
	}

	// Channel to capture server startup errors
	serverErrCh := make(chan error, 1)

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	// Close spectator connections first so their handlers unwind
	registry.CloseAll()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")
	return nil
}
