package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/trade-arena/internal/config"
	"github.com/jwebster45206/trade-arena/internal/handlers"
	"github.com/jwebster45206/trade-arena/internal/logger"
	"github.com/jwebster45206/trade-arena/internal/middleware"
	"github.com/jwebster45206/trade-arena/internal/services/queue"
	"github.com/jwebster45206/trade-arena/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Trade Arena API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL,
		"archive_path", cfg.ArchivePath)

	store := storage.NewRedisStorage(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.Ping(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	archive, err := storage.OpenArchive(cfg.ArchivePath, log)
	if err != nil {
		log.Error("Failed to open episode archive", "error", err, "path", cfg.ArchivePath)
		os.Exit(1)
	}
	log.Info("Episode archive opened", "path", cfg.ArchivePath)

	queueClient := queue.NewClient(cfg.RedisURL)
	episodeQueue := queue.NewEpisodeQueue(queueClient)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	hub := handlers.NewWatchHub(log)
	episodeHandler := handlers.NewEpisodeHandler(store, archive, episodeQueue, hub, log, cfg.DefaultTurnLimit)
	mux.Handle("/v1/episodes", episodeHandler)
	mux.Handle("/v1/episodes/", episodeHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays unset; websocket spectators hold long-lived
		// connections.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}
	if err := archive.Close(); err != nil {
		log.Error("Error closing episode archive", "error", err)
	}
	if err := queueClient.Close(); err != nil {
		log.Error("Error closing queue client", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
