package main

import (
	"casechat/auth"
	"casechat/infrastructure/rest"
	"casechat/infrastructure/ws"
	"casechat/moderation"
	"casechat/observability"
	"casechat/projection"
	"casechat/repositories"
	"casechat/runtime"
	"casechat/runtime/workers"
	"casechat/search"
	"casechat/services"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components and manages the server lifecycle.
// Centralizing errors here instead of calling os.Exit directly ensures
// every defer (database close, index close) executes before exit.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	auth.SetSigningKey(config.JWTSecret)

	// 2. Storage (BadgerDB) & Search Index (Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	indexWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = indexWriter.Close()
	}()

	// 3. Repositories & Moderation
	messageRepository, err := repositories.NewMessageRepository(db, log)
	if err != nil {
		return fmt.Errorf("message repository failed: %w", err)
	}
	defer messageRepository.Close()
	userRepository := repositories.NewUserRepository(db)

	blacklist, err := moderation.LoadBlacklist()
	if err != nil {
		return fmt.Errorf("blacklist loading failed: %w", err)
	}
	moderator, err := moderation.NewModerator(blacklist.Words, config.ModerationCharReplacement)
	if err != nil {
		return fmt.Errorf("moderator build failed: %w", err)
	}
	log.Info("Moderation ready", "words", len(blacklist.Words), "languages", blacklist.Languages)

	// 4. Core Services
	registry := runtime.NewRegistry()
	monitoring := observability.NewMonitoring()
	index := search.NewMessageIndex(indexWriter, log)

	router := services.NewMessageRouter(log, registry, messageRepository,
		userRepository, &moderator, index, monitoring, config.MaxContentLength)
	typing := services.NewTypingIndicator(log, registry, monitoring)
	receipts := services.NewReadReceipts(log, registry, messageRepository, monitoring)
	presence := services.NewPresenceBroadcaster(log, config.BufferSize, monitoring)
	aggregator := projection.NewAggregator(messageRepository, userRepository)
	authService := services.NewAuthService(userRepository, config.AuthTokenDuration)

	// 5. Supervision
	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	supervisor.Add(
		workers.NewPresenceFanout(log, registry, presence.Events()),
		workers.NewHeartbeat(log, registry, monitoring, config.HeartbeatInterval),
	)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go supervisor.Run(ctx)

	// 7. HTTP & WebSocket Server
	coordinator := ws.NewCoordinator(log, registry, router, typing, receipts,
		presence, config.ConnectionBufferSize)
	handler := rest.NewHandler(log, authService, router, receipts, aggregator,
		index, userRepository)
	server := rest.NewServer(log, handler, coordinator, registry, monitoring,
		config.AllowedOrigins)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting server", "address", address, "at", time.Now().UTC())
		if err := server.Listen(address); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server shutdown error", "error", err)
	}
	supervisor.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
