package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/trade-arena/pkg/negotiation"
	"github.com/jwebster45206/trade-arena/pkg/state"
)

// TurnRequest submits one player's raw action text.
type TurnRequest struct {
	PlayerID int    `json:"player_id"`
	Text     string `json:"text"`
}

// TurnResponse returns the engine result alongside the refreshed episode.
type TurnResponse struct {
	Result  *negotiation.TurnResult `json:"result"`
	Episode *state.EpisodeState     `json:"episode"`
}

func (h *EpisodeHandler) handleTurn(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid turn request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'player_id' and 'text' fields.")
		return
	}
	if req.Text == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Text cannot be empty.")
		return
	}

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
	if es.Status != state.StatusActive {
		writeError(w, h.logger, http.StatusConflict, "Episode is already complete")
		return
	}

	result, err := h.engine.Step(es, req.PlayerID, req.Text)
	if err != nil {
		// Step errors are caller mistakes (bad player id, responding to
		// your own offer), not engine failures.
		h.logger.Warn("Turn rejected", "episode_id", id, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	h.hub.Broadcast(id, result.Broadcasts)

	if result.Done {
		if err := h.archive.Store(r.Context(), es); err != nil {
			h.logger.Error("Failed to archive completed episode", "episode_id", id, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to archive episode")
			return
		}
		if err := h.store.DeleteEpisode(r.Context(), id); err != nil {
			h.logger.Error("Failed to remove completed episode", "episode_id", id, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to finalize episode")
			return
		}
		h.logger.Info("Episode complete", "episode_id", id, "turns", es.Turn, "outcome", es.Outcome.Reason)
	} else {
		if err := h.store.SaveEpisode(r.Context(), es); err != nil {
			h.logger.Error("Failed to save episode", "episode_id", id, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to save episode")
			return
		}
	}

	writeJSON(w, h.logger, http.StatusOK, TurnResponse{Result: result, Episode: es})
}
