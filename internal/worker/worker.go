package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/trade-arena/internal/services"
	"github.com/jwebster45206/trade-arena/internal/services/queue"
	"github.com/jwebster45206/trade-arena/internal/storage"
	"github.com/jwebster45206/trade-arena/pkg/negotiation"
	"github.com/jwebster45206/trade-arena/pkg/prompts"
	"github.com/jwebster45206/trade-arena/pkg/state"
)

const (
	pollInterval = 1 * time.Second
	agentTimeout = 60 * time.Second

	// maxSelfPlayTurns caps unlimited episodes so a queue entry can't spin
	// forever on two agents that never close a deal.
	maxSelfPlayTurns = 200
)

// Worker drains the self-play queue and plays queued episodes to completion
// with two agents, archiving the result.
type Worker struct {
	id      string
	store   storage.Storage
	archive storage.Archiver
	queue   *queue.EpisodeQueue
	agents  [2]services.AgentService
	engine  *negotiation.Engine
	log     *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a new worker instance
func New(store storage.Storage, archive storage.Archiver, q *queue.EpisodeQueue,
	agents [2]services.AgentService, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	return &Worker{
		id:      workerID,
		store:   store,
		archive: archive,
		queue:   q,
		agents:  agents,
		engine:  negotiation.NewEngine(log),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins draining the self-play queue
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			played, err := w.ProcessNext(w.ctx)
			if err != nil {
				w.log.Error("Error processing episode", "error", err, "worker_id", w.id)
				time.Sleep(pollInterval)
				continue
			}
			if !played {
				time.Sleep(pollInterval)
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// ProcessNext dequeues and plays at most one episode. The first return is
// false when the queue was empty.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	id, ok, err := w.queue.Dequeue(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to dequeue episode: %w", err)
	}
	if !ok {
		return false, nil
	}

	if err := w.playEpisode(ctx, id); err != nil {
		return true, fmt.Errorf("failed to play episode %s: %w", id, err)
	}
	return true, nil
}

// playEpisode runs one episode to completion, alternating the two agents.
func (w *Worker) playEpisode(ctx context.Context, id uuid.UUID) error {
	es, err := w.store.LoadEpisode(ctx, id)
	if err != nil {
		return err
	}
	if es == nil {
		w.log.Warn("Queued episode no longer exists", "worker_id", w.id, "episode_id", id)
		return nil
	}
	if es.Status != state.StatusActive {
		w.log.Warn("Queued episode already complete", "worker_id", w.id, "episode_id", id)
		return nil
	}

	w.log.Info("Playing episode", "worker_id", w.id, "episode_id", id,
		"turn", es.Turn, "turn_limit", es.TurnLimit)

	for es.Status == state.StatusActive && es.Turn < maxSelfPlayTurns {
		playerID := es.Turn % 2

		action, err := w.nextAction(ctx, es, playerID)
		if err != nil {
			return fmt.Errorf("agent %d failed on turn %d: %w", playerID, es.Turn, err)
		}

		result, err := w.engine.Step(es, playerID, action)
		if err != nil {
			return fmt.Errorf("engine rejected turn %d: %w", es.Turn, err)
		}
		for _, f := range result.Faults {
			w.log.Warn("Agent fault", "worker_id", w.id, "episode_id", id,
				"players", f.PlayerIDs, "reason", f.Reason)
		}

		if err := w.store.SaveEpisode(ctx, es); err != nil {
			return fmt.Errorf("failed to save episode: %w", err)
		}
	}

	if es.Status != state.StatusComplete {
		w.log.Warn("Episode abandoned before completion", "worker_id", w.id,
			"episode_id", id, "turn", es.Turn)
		return nil
	}

	if err := w.archive.Store(ctx, es); err != nil {
		return fmt.Errorf("failed to archive episode: %w", err)
	}
	if err := w.store.DeleteEpisode(ctx, id); err != nil {
		return fmt.Errorf("failed to remove completed episode: %w", err)
	}

	w.log.Info("Episode complete", "worker_id", w.id, "episode_id", id,
		"turns", es.Turn, "outcome", es.Outcome.Reason)
	return nil
}

// nextAction asks the acting player's agent for its turn text.
func (w *Worker) nextAction(ctx context.Context, es *state.EpisodeState, playerID int) (string, error) {
	agentCtx, cancel := context.WithTimeout(ctx, agentTimeout)
	defer cancel()

	messages := []services.ChatMessage{
		{Role: services.ChatRoleSystem, Content: prompts.PlayerPrompt(es, playerID)},
		{Role: services.ChatRoleUser, Content: prompts.TranscriptPrompt(es, playerID) +
			"\nIt is your turn. Reply with your next message."},
	}
	return w.agents[playerID].NextAction(agentCtx, messages)
}
