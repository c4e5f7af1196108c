package handlers

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/trade-arena/internal/services/queue"
	"github.com/jwebster45206/trade-arena/internal/storage"
	"github.com/jwebster45206/trade-arena/pkg/negotiation"
	"github.com/jwebster45206/trade-arena/pkg/prompts"
	"github.com/jwebster45206/trade-arena/pkg/state"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateEpisodeRequest creates a fresh episode. A nil seed draws a random
// one; a nil turn limit uses the server default.
type CreateEpisodeRequest struct {
	Seed      *int64 `json:"seed,omitempty"`
	TurnLimit *int   `json:"turn_limit,omitempty"`
}

// EpisodeResponse is the episode snapshot plus the per-player instruction
// prompts. Prompts reveal private values, so API consumers are expected to
// show each player only their own.
type EpisodeResponse struct {
	Episode *state.EpisodeState `json:"episode"`
	Prompts [2]string           `json:"prompts"`
}

// EpisodeHandler handles all /v1/episodes routes:
//
//	POST   /v1/episodes              - create a new episode
//	GET    /v1/episodes/{id}         - read an episode
//	DELETE /v1/episodes/{id}         - delete an episode
//	POST   /v1/episodes/{id}/turns   - submit a turn (turns.go)
//	POST   /v1/episodes/{id}/enqueue - queue the episode for self-play
//	GET    /v1/episodes/{id}/watch   - websocket broadcast stream (watch.go)
type EpisodeHandler struct {
	store            storage.Storage
	archive          storage.Archiver
	queue            *queue.EpisodeQueue
	hub              *WatchHub
	engine           *negotiation.Engine
	logger           *slog.Logger
	defaultTurnLimit int
}

func NewEpisodeHandler(store storage.Storage, archive storage.Archiver, q *queue.EpisodeQueue,
	hub *WatchHub, logger *slog.Logger, defaultTurnLimit int) *EpisodeHandler {
	return &EpisodeHandler{
		store:            store,
		archive:          archive,
		queue:            q,
		hub:              hub,
		engine:           negotiation.NewEngine(logger),
		logger:           logger,
		defaultTurnLimit: defaultTurnLimit,
	}
}

func (h *EpisodeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/episodes"), "/")

	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.SplitN(path, "/", 2)
	episodeID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid episode ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid episode ID format")
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "turns":
			h.handleTurn(w, r, episodeID)
		case "enqueue":
			h.handleEnqueue(w, r, episodeID)
		case "watch":
			h.handleWatch(w, r, episodeID)
		default:
			writeError(w, h.logger, http.StatusNotFound, "Unknown episode resource")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleRead(w, r, episodeID)
	case http.MethodDelete:
		h.handleDelete(w, r, episodeID)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *EpisodeHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateEpisodeRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			h.logger.Warn("Invalid create request body", "error", err)
			writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	seed := rand.Int63()
	if req.Seed != nil {
		seed = *req.Seed
	}
	turnLimit := h.defaultTurnLimit
	if req.TurnLimit != nil {
		if *req.TurnLimit < 0 {
			writeError(w, h.logger, http.StatusBadRequest, "turn_limit cannot be negative")
			return
		}
		turnLimit = *req.TurnLimit
	}

	es := state.NewEpisodeState(seed, turnLimit)
	if err := h.store.SaveEpisode(r.Context(), es); err != nil {
		h.logger.Error("Failed to save new episode", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create episode")
		return
	}

	h.logger.Info("Episode created", "episode_id", es.ID, "seed", seed, "turn_limit", turnLimit)
	writeJSON(w, h.logger, http.StatusCreated, episodeResponse(es))
}

func (h *EpisodeHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	es, err := h.store.LoadEpisode(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load episode", "episode_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load episode")
		return
	}
	if es == nil {
		writeError(w, h.logger, http.StatusNotFound, "Episode not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, episodeResponse(es))
}

func (h *EpisodeHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.store.DeleteEpisode(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete episode", "episode_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete episode")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EpisodeHandler) handleEnqueue(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	es, err := h.store.LoadEpisode(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load episode")
		return
	}
	if es == nil {
		writeError(w, h.logger, http.StatusNotFound, "Episode not found")
		return
	}
	if es.Status != state.StatusActive {
		writeError(w, h.logger, http.StatusConflict, "Episode is already complete")
		return
	}

	if err := h.queue.Enqueue(r.Context(), id); err != nil {
		h.logger.Error("Failed to enqueue episode", "episode_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to enqueue episode")
		return
	}

	h.logger.Info("Episode queued for self-play", "episode_id", id)
	w.WriteHeader(http.StatusAccepted)
}

func episodeResponse(es *state.EpisodeState) EpisodeResponse {
	return EpisodeResponse{
		Episode: es,
		Prompts: [2]string{
			prompts.PlayerPrompt(es, 0),
			prompts.PlayerPrompt(es, 1),
		},
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}
