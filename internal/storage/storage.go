package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jwebster45206/trade-arena/pkg/state"
)

// Storage holds in-flight episode state. Implementations return (nil, nil)
// from LoadEpisode when the episode does not exist.
type Storage interface {
	Ping(ctx context.Context) error
	Close() error

	SaveEpisode(ctx context.Context, es *state.EpisodeState) error
	LoadEpisode(ctx context.Context, id uuid.UUID) (*state.EpisodeState, error)
	DeleteEpisode(ctx context.Context, id uuid.UUID) error
}

// Archiver persists completed episodes. Archived episodes are immutable;
// live state never outlives its episode.
type Archiver interface {
	Store(ctx context.Context, es *state.EpisodeState) error
	Close() error
}
