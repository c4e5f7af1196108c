package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/jwebster45206/trade-arena/internal/storage"
	"github.com/jwebster45206/trade-arena/pkg/state"
)

// Inspects the episode archive: lists outcome summaries, or replays one
// episode's transcript.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <archive.db> [episode-id]\n", os.Args[0])
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	archive, err := storage.OpenArchive(os.Args[1], logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open archive: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = archive.Close()
	}()

	ctx := context.Background()

	if len(os.Args) < 3 {
		if err := listEpisodes(ctx, archive); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	id, err := uuid.Parse(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid episode id %q\n", os.Args[2])
		os.Exit(1)
	}
	if err := replayEpisode(ctx, archive, id); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func listEpisodes(ctx context.Context, archive *storage.EpisodeArchive) error {
	summaries, err := archive.List(ctx, 50)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("Archive is empty.")
		return nil
	}

	fmt.Printf("%-36s  %-6s  %-8s  %-8s  %s\n", "ID", "TURNS", "P0", "P1", "RESULT")
	for _, s := range summaries {
		result := "draw"
		if s.WinnerID != nil {
			result = fmt.Sprintf("player %d", *s.WinnerID)
		}
		fmt.Printf("%-36s  %-6d  %+-8d  %+-8d  %s\n", s.ID, s.Turns, s.Change[0], s.Change[1], result)
	}
	return nil
}

func replayEpisode(ctx context.Context, archive *storage.EpisodeArchive, id uuid.UUID) error {
	es, err := archive.Load(ctx, id)
	if err != nil {
		return err
	}
	if es == nil {
		return fmt.Errorf("episode %s is not archived", id)
	}

	fmt.Printf("Episode %s (seed %d, %d turns)\n\n", es.ID, es.Seed, es.Turn)
	for _, msg := range es.Transcript {
		if msg.From == state.GameID {
			fmt.Printf("[GAME] %s\n", msg.Content)
		} else {
			fmt.Printf("Player %d: %s\n", msg.From, msg.Content)
		}
	}
	if es.Outcome != nil {
		fmt.Printf("\n%s\n", es.Outcome.Reason)
	}
	return nil
}
