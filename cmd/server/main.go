package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kickfeed/internal/adapters/kafka"
	"kickfeed/internal/api/routes"
	"kickfeed/internal/archive"
	"kickfeed/internal/config"
	"kickfeed/internal/database"
	"kickfeed/internal/kick"
	"kickfeed/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting kickfeed")

	// Initialize Redis connection
	redisClient, err := database.NewRedisConnection(&cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Initialize PostgreSQL connection
	db, err := database.NewPostgresConnection(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}

	redisService := services.NewRedisService(redisClient)
	messageRepo := archive.NewMessageRepository(db)
	resolver := kick.NewChannelResolver(cfg.Relay.APIBaseURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Resolve configured channel slugs to chatroom ids
	chatroomIDs := append([]int64(nil), cfg.Relay.ChatroomIDs...)
	for _, slug := range cfg.Relay.ChannelSlugs {
		if id, ok := redisService.GetCachedChatroomID(ctx, slug); ok {
			chatroomIDs = append(chatroomIDs, id)
			continue
		}
		id, err := resolver.Resolve(ctx, slug)
		if err != nil {
			slog.Error("Failed to resolve channel", "slug", slug, "error", err)
			os.Exit(1)
		}
		redisService.CacheChatroomID(ctx, slug, id)
		chatroomIDs = append(chatroomIDs, id)
		slog.Info("Channel resolved", "slug", slug, "chatroomId", id)
	}
	if len(chatroomIDs) == 0 {
		slog.Error("No chatrooms configured; set KICK_CHATROOM_IDS or KICK_CHANNELS")
		os.Exit(1)
	}

	// Connect to the chat relay and subscribe
	client, err := kick.Dial(ctx, cfg.Relay.Endpoint, chatroomIDs...)
	if err != nil {
		slog.Error("Failed to connect to chat relay", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	// Optional Kafka firehose
	publishers := []archive.Publisher{redisService}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publishers = append(publishers, producer)
		slog.Info("Kafka publishing enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	archiver := archive.NewService(client, messageRepo, redisService, publishers...)

	// Run the archiver; when the stream ends the health endpoint flips to
	// unavailable and orchestration takes it from there.
	archiveDone := make(chan error, 1)
	go func() {
		archiveDone <- archiver.Run(ctx)
	}()

	// Initialize router with all dependencies
	router := routes.NewRouter(client, messageRepo, resolver, redisService)
	router.SetupRoutes()

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal or archiver exit
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("Server shutting down...")
	case err := <-archiveDone:
		if err != nil {
			slog.Error("Archiver stopped", "error", err)
		} else {
			slog.Info("Archiver finished")
		}
	}

	// Graceful shutdown
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	client.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
