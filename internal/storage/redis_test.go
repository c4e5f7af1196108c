package storage

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/trade-arena/pkg/resource"
	"github.com/jwebster45206/trade-arena/pkg/state"
)

func testRedisStorage(t *testing.T) *RedisStorage {
	t.Helper()
	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s := NewRedisStorage(mr.Addr(), logger)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestRedisStorage_SaveAndLoadEpisode(t *testing.T) {
	s := testRedisStorage(t)
	ctx := context.Background()

	es := state.NewEpisodeState(42, 20)
	es.AddMessage(0, "hello")

	if err := s.SaveEpisode(ctx, es); err != nil {
		t.Fatalf("Failed to save episode: %v", err)
	}

	loaded, err := s.LoadEpisode(ctx, es.ID)
	if err != nil {
		t.Fatalf("Failed to load episode: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected non-nil episode")
	}

	if loaded.ID != es.ID {
		t.Errorf("Expected ID %v, got %v", es.ID, loaded.ID)
	}
	if loaded.Seed != 42 || loaded.TurnLimit != 20 {
		t.Errorf("Expected seed 42 / limit 20, got %d / %d", loaded.Seed, loaded.TurnLimit)
	}
	for pid := 0; pid < 2; pid++ {
		if !loaded.Players[pid].Stock.Equal(es.Players[pid].Stock) {
			t.Errorf("Player %d stock lost in round trip", pid)
		}
		for _, k := range resource.Kinds {
			if loaded.Players[pid].Values[k] != es.Players[pid].Values[k] {
				t.Errorf("Player %d value for %s lost in round trip", pid, k)
			}
		}
	}
	if len(loaded.Transcript) != 1 || loaded.Transcript[0].Content != "hello" {
		t.Errorf("Transcript lost in round trip: %v", loaded.Transcript)
	}
}

func TestRedisStorage_LoadNonExistentEpisode(t *testing.T) {
	s := testRedisStorage(t)

	loaded, err := s.LoadEpisode(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Expected no error for non-existent episode, got: %v", err)
	}
	if loaded != nil {
		t.Error("Expected nil for non-existent episode")
	}
}

func TestRedisStorage_DeleteEpisode(t *testing.T) {
	s := testRedisStorage(t)
	ctx := context.Background()

	es := state.NewEpisodeState(1, 10)
	if err := s.SaveEpisode(ctx, es); err != nil {
		t.Fatalf("Failed to save episode: %v", err)
	}

	if err := s.DeleteEpisode(ctx, es.ID); err != nil {
		t.Fatalf("Failed to delete episode: %v", err)
	}

	loaded, err := s.LoadEpisode(ctx, es.ID)
	if err != nil {
		t.Fatalf("Unexpected error after deletion: %v", err)
	}
	if loaded != nil {
		t.Error("Episode should be nil after deletion")
	}
}

func TestRedisStorage_PendingOfferRoundTrip(t *testing.T) {
	s := testRedisStorage(t)
	ctx := context.Background()

	es := state.NewEpisodeState(7, 20)
	es.PendingOffer = nil
	if err := s.SaveEpisode(ctx, es); err != nil {
		t.Fatalf("Failed to save episode: %v", err)
	}
	loaded, err := s.LoadEpisode(ctx, es.ID)
	if err != nil || loaded == nil {
		t.Fatalf("Failed to load episode: %v", err)
	}
	if loaded.PendingOffer != nil {
		t.Error("Expected no pending offer after round trip")
	}
}
