package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jwebster45206/trade-arena/internal/config"
	"github.com/jwebster45206/trade-arena/internal/logger"
	"github.com/jwebster45206/trade-arena/internal/services"
	"github.com/jwebster45206/trade-arena/internal/services/queue"
	"github.com/jwebster45206/trade-arena/internal/storage"
	"github.com/jwebster45206/trade-arena/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Trade Arena Worker",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL,
		"agent_provider", cfg.AgentProvider,
		"model_name", cfg.ModelName)

	queueClient := queue.NewClient(cfg.RedisURL)
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing queue client", "error", err)
		}
	}()
	episodeQueue := queue.NewEpisodeQueue(queueClient)
	log.Info("Queue service initialized successfully")

	store := storage.NewRedisStorage(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.Ping(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage service initialized successfully")

	archive, err := storage.OpenArchive(cfg.ArchivePath, log)
	if err != nil {
		log.Error("Failed to open episode archive", "error", err, "path", cfg.ArchivePath)
		os.Exit(1)
	}
	defer func() {
		if err := archive.Close(); err != nil {
			log.Error("Error closing episode archive", "error", err)
		}
	}()

	// Both seats run the same agent backend; they diverge through their
	// private valuations and the transcript each one sees.
	var agents [2]services.AgentService
	switch strings.ToLower(cfg.AgentProvider) {
	case "ollama":
		agents[0] = services.NewOllamaService(cfg.OllamaURL, cfg.ModelName, log)
		agents[1] = services.NewOllamaService(cfg.OllamaURL, cfg.ModelName, log)

		initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer initCancel()
		if err := agents[0].InitModel(initCtx, cfg.ModelName); err != nil {
			log.Error("Failed to initialize agent model", "error", err, "model", cfg.ModelName)
			os.Exit(1)
		}
		log.Info("Using Ollama agent provider", "model", cfg.ModelName)
	case "mock":
		agents[0] = services.NewMockAgent("I pass this turn.")
		agents[1] = services.NewMockAgent("I pass this turn.")
		log.Info("Using mock agent provider")
	default:
		log.Error("Invalid agent provider specified", "provider", cfg.AgentProvider, "supported", []string{"ollama", "mock"})
		os.Exit(1)
	}

	w := worker.New(store, archive, episodeQueue, agents, log, os.Getenv("WORKER_ID"))

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("Worker started, waiting for queued episodes...")

	<-quit
	log.Info("Worker shutdown signal received")

	w.Stop()

	// Give the worker time to finish the current turn
	time.Sleep(2 * time.Second)

	log.Info("Worker exited")
}
