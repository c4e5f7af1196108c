package handlers

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WatchEvent is one message on the spectator stream.
type WatchEvent struct {
	EpisodeID string `json:"episode_id"`
	Message   string `json:"message"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WatchHub fans engine narration out to websocket spectators, keyed by
// episode. Connections that fall behind or error are dropped.
type WatchHub struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]map[*websocket.Conn]bool
	logger *slog.Logger
}

func NewWatchHub(logger *slog.Logger) *WatchHub {
	return &WatchHub{
		subs:   make(map[uuid.UUID]map[*websocket.Conn]bool),
		logger: logger,
	}
}

// Broadcast sends each message to every spectator of the episode.
func (hub *WatchHub) Broadcast(episodeID uuid.UUID, messages []string) {
	if len(messages) == 0 {
		return
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()

	for conn := range hub.subs[episodeID] {
		for _, msg := range messages {
			if err := conn.WriteJSON(WatchEvent{EpisodeID: episodeID.String(), Message: msg}); err != nil {
				hub.logger.Debug("Dropping spectator", "episode_id", episodeID, "error", err)
				hub.removeLocked(episodeID, conn)
				break
			}
		}
	}
}

func (hub *WatchHub) add(episodeID uuid.UUID, conn *websocket.Conn) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.subs[episodeID] == nil {
		hub.subs[episodeID] = make(map[*websocket.Conn]bool)
	}
	hub.subs[episodeID][conn] = true
}

func (hub *WatchHub) remove(episodeID uuid.UUID, conn *websocket.Conn) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	hub.removeLocked(episodeID, conn)
}

func (hub *WatchHub) removeLocked(episodeID uuid.UUID, conn *websocket.Conn) {
	if set, ok := hub.subs[episodeID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(hub.subs, episodeID)
		}
	}
	_ = conn.Close()
}

// handleWatch upgrades the request and streams engine narration until the
// spectator disconnects.
func (h *EpisodeHandler) handleWatch(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "episode_id", id, "error", err)
		return
	}

	h.hub.add(id, conn)
	h.logger.Debug("Spectator connected", "episode_id", id, "remote_addr", r.RemoteAddr)

	// Reads are discarded; the read loop only notices disconnects.
	go func() {
		defer h.hub.remove(id, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
