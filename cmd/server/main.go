package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"collab-live/auth"
	"collab-live/gateway"
	"collab-live/internal"
	"collab-live/moderation"
	"collab-live/observability"
	"collab-live/repositories"
	"collab-live/runtime"
	"collab-live/runtime/workers"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so every defer (database close in
// particular) executes before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	options := badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(options)
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Collaborators
	messages := repositories.NewMessageRepository(db, logger, config.LimitMessages)
	users := repositories.NewUserRepository(db)
	workspaces := repositories.NewWorkspaceRepository(db)

	tokens := auth.NewTokenService(config.JWTSecret, config.JWTIssuer, config.AuthTokenDuration)
	verifier := auth.NewVerifier(tokens, users)

	// 4. Optional moderation
	var moderator *moderation.Moderator
	if config.CensoredWordsFile != "" {
		words, err := moderation.LoadWords(config.CensoredWordsFile)
		if err != nil {
			return exitConfig, fmt.Errorf("censored words: %w", err)
		}
		maskRunes := []rune(config.CensoredMaskChar)
		if len(maskRunes) != 1 {
			return exitConfig, fmt.Errorf("CENSORED_MASK_CHAR must be a single character, got %q", config.CensoredMaskChar)
		}
		moderator, err = moderation.NewModerator(words, maskRunes[0])
		if err != nil {
			return exitConfig, fmt.Errorf("moderation automaton: %w", err)
		}
		logger.Info(fmt.Sprintf("%d censored words loaded", len(words)))
	}

	// 5. Realtime core
	registry := runtime.NewRegistry(config.RateLimitMessages, config.RateLimitWindow)
	rooms := runtime.NewRooms(registry, logger, config.SinkTimeout)
	pipeline := runtime.NewPipeline(logger, registry, rooms, messages, users,
		moderator, config.MaxContentLength, config.SinkTimeout)
	presence := runtime.NewPresenceBroadcaster(logger, rooms, users)

	gw := gateway.NewGateway(logger, verifier, workspaces, registry, rooms,
		pipeline, presence, gateway.Config{
			SendBufferSize: config.SendBufferSize,
			ReadLimit:      config.ReadLimitBytes,
			SinkTimeout:    config.SinkTimeout,
		})

	// 6. Background workers under supervision
	collector, err := observability.NewCollector(registry.Size)
	if err != nil {
		return exitRuntime, fmt.Errorf("stats collector: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	supervisor := workers.NewSupervisor(logger)
	supervisor.Add(
		workers.NewStatsWorker(logger, collector, config.StatsInterval),
		workers.NewGCWorker(logger, db, config.GCInterval),
	)
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(ctx)
	}()

	// 7. HTTP surface: the websocket endpoint plus process liveness
	mux := http.NewServeMux()
	mux.Handle("/ws", gw)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(collector.Snapshot())
	})

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: mux,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Realtime gateway listening", "addr", server.Addr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		return exitRuntime, fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}

	supervisor.Stop()
	select {
	case <-supervisorDone:
	case <-time.After(config.ShutdownTimeout):
		logger.Warn("Workers did not stop in time")
	}

	return exitOK, nil
}
