package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/jwebster45206/trade-arena/internal/config"
	"github.com/jwebster45206/trade-arena/internal/logger"
	"github.com/jwebster45206/trade-arena/internal/services/queue"
	"github.com/jwebster45206/trade-arena/internal/storage"
	"github.com/jwebster45206/trade-arena/pkg/state"
)

// Seeds a batch of fresh episodes and queues them for the self-play worker.
func main() {
	count := flag.Int("n", 1, "number of episodes to create and enqueue")
	seed := flag.Int64("seed", 0, "seed for the first episode (0 draws random seeds)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	slogger := logger.Setup(cfg)

	store := storage.NewRedisStorage(cfg.RedisURL, slogger)
	client := queue.NewClient(cfg.RedisURL)
	defer func() {
		_ = store.Close()
		_ = client.Close()
	}()
	episodeQueue := queue.NewEpisodeQueue(client)

	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	fmt.Println("Connected to Redis successfully!")

	for i := 0; i < *count; i++ {
		episodeSeed := rand.Int63()
		if *seed != 0 {
			episodeSeed = *seed + int64(i)
		}

		es := state.NewEpisodeState(episodeSeed, cfg.DefaultTurnLimit)
		if err := store.SaveEpisode(ctx, es); err != nil {
			log.Fatal("Failed to save episode:", err)
		}
		if err := episodeQueue.Enqueue(ctx, es.ID); err != nil {
			log.Fatal("Failed to enqueue episode:", err)
		}
		fmt.Printf("Enqueued episode %s (seed %d)\n", es.ID, episodeSeed)
	}

	depth, err := episodeQueue.Depth(ctx)
	if err != nil {
		log.Fatal("Failed to get queue depth:", err)
	}

	fmt.Printf("\nQueue depth: %d episodes\n", depth)
	fmt.Println("\nNow start the worker to play them:")
	fmt.Println("   Run: go run cmd/worker/main.go")
}
