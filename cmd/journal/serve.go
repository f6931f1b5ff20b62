package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/suhass434/journal-assistant/internal/audit"
	"github.com/suhass434/journal-assistant/internal/config"
	"github.com/suhass434/journal-assistant/internal/llm"
	"github.com/suhass434/journal-assistant/internal/nlp"
	"github.com/suhass434/journal-assistant/internal/scheduler"
	"github.com/suhass434/journal-assistant/internal/server"
	"github.com/suhass434/journal-assistant/internal/store"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the journal assistant API server",
	Long:  `Starts the HTTP API that extracts tasks from natural language, matches completion statements, and serves task and goal data.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Gemini.APIKey == "" {
		logger.Warn().Msg("GEMINI_API_KEY not set, every AI call will use the deterministic fallback")
	}

	// Initialize store
	st, err := store.New(cfg.DBPath)
	if err != nil {
		return err
	}

	// Initialize components
	history := audit.NewHistoryWriter(st)
	client := llm.NewGemini(cfg.Gemini.APIKey, cfg.Gemini.Model,
		llm.WithTimeout(cfg.Gemini.Timeout),
		llm.WithConcurrency(cfg.Gemini.MaxConcurrent),
		llm.WithLogger(logger.With().Str("component", "llm").Logger()),
	)
	engine := nlp.NewWithLogger(client, logger.With().Str("component", "nlp").Logger())

	// Create service and server
	service := server.NewService(st, history, engine, logger.With().Str("component", "service").Logger())
	srv := server.NewServer(service, st, cfg.Listen, logger.With().Str("component", "http").Logger())

	// Create and start the recurrence scheduler
	schedulerCfg := scheduler.DefaultConfig()
	schedulerCfg.Interval = cfg.Scheduler.Interval
	schedulerCfg.HorizonDays = cfg.Scheduler.HorizonDays
	sched := scheduler.New(st, service, schedulerCfg, logger.With().Str("component", "scheduler").Logger())

	sched.Start()
	defer sched.Stop()

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		err := srv.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")
	case err := <-serverErr:
		if err != nil {
			logger.Error().Err(err).Msg("server error")
			st.Close()
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if err := st.Close(); err != nil {
		logger.Error().Err(err).Msg("database close error")
	}

	logger.Info().Msg("shutdown complete")
	return nil
}
