package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/thepromptlink/promptlink/internal/gateway"
	"github.com/thepromptlink/promptlink/pkg/config"
	"github.com/thepromptlink/promptlink/pkg/database"
)

var (
	devMode     bool
	verbose     bool
	autoMigrate bool
)

// ServeCmd rappresenta il comando serve
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the PromptLink backend server",
	Long: `Start the PromptLink backend server.

This command starts the HTTP server that orchestrates chat requests
across multiple AI models with bounded concurrency.`,
	Example: `  # Start server with default settings
  promptlink serve

  # Start in development mode with verbose logging
  promptlink serve --dev --verbose

  # Start with custom config
  promptlink serve -c /path/to/config.yaml`,
	RunE: runServe,
}

func init() {
	ServeCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (pretty logging)")
	ServeCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging (debug level)")
	ServeCmd.Flags().BoolVar(&autoMigrate, "migrate", true, "Auto-run database migrations on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	setupLogger(verbose, devMode)

	log.Info().Msg("🚀 Starting PromptLink Backend")

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Bool("dev_mode", devMode).
		Msg("Configuration loaded")

	// Database opzionale: la sua assenza degrada il logging, mai il servizio
	var db *database.DB
	if cfg.Database.Enabled {
		db, err = database.New(&cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		log.Info().
			Str("type", cfg.Database.Type).
			Str("connection", cfg.Database.Connection).
			Msg("Database connected")

		if autoMigrate {
			log.Info().Msg("Running database migrations...")
			if err := db.AutoMigrate(); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info().Msg("✓ Database migrations completed")
		}
	} else {
		log.Info().Msg("Database disabled, request logging off")
	}

	gw, err := gateway.New(cfg, db)
	if err != nil {
		return fmt.Errorf("failed to create gateway: %w", err)
	}

	go func() {
		if err := gw.Start(); err != nil {
			log.Fatal().Err(err).Msg("Gateway failed to start")
		}
	}()

	log.Info().Msgf("🌐 Backend running on http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().Msgf("📊 Health check: http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)
	if cfg.Monitoring.Prometheus.Enabled {
		log.Info().Msgf("📈 Metrics: http://%s:%d/metrics", cfg.Server.Host, cfg.Server.Port)
	}
	log.Info().Msg("Press Ctrl+C to stop")

	return waitForShutdown(gw)
}

func waitForShutdown(gw *gateway.Gateway) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("⏳ Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := gw.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
		return err
	}

	log.Info().Msg("✓ PromptLink Backend stopped cleanly")
	return nil
}

func setupLogger(verbose, dev bool) {
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Pretty console output in development, JSON in produzione
	if dev {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	}
}
