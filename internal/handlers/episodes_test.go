package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/trade-arena/internal/services/queue"
	"github.com/jwebster45206/trade-arena/internal/storage"
	"github.com/jwebster45206/trade-arena/pkg/state"
)

func testHandler(t *testing.T) (*EpisodeHandler, *storage.MockStorage, *storage.MockArchiver, *queue.EpisodeQueue) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := queue.NewClient(mr.Addr())
	t.Cleanup(func() {
		_ = client.Close()
	})
	q := queue.NewEpisodeQueue(client)

	store := storage.NewMockStorage()
	archive := storage.NewMockArchiver()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	hub := NewWatchHub(logger)

	return NewEpisodeHandler(store, archive, q, hub, logger, 20), store, archive, q
}

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestEpisodeHandler_Create(t *testing.T) {
	h, store, _, _ := testHandler(t)

	seed := int64(42)
	limit := 8
	w := doRequest(t, h, http.MethodPost, "/v1/episodes",
		CreateEpisodeRequest{Seed: &seed, TurnLimit: &limit})

	require.Equal(t, http.StatusCreated, w.Code)

	var resp EpisodeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotNil(t, resp.Episode)
	assert.Equal(t, int64(42), resp.Episode.Seed)
	assert.Equal(t, 8, resp.Episode.TurnLimit)
	assert.Equal(t, state.StatusActive, resp.Episode.Status)
	assert.Contains(t, resp.Prompts[0], "You are Player 0")
	assert.Contains(t, resp.Prompts[1], "You are Player 1")

	saved, err := store.LoadEpisode(context.Background(), resp.Episode.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
}

func TestEpisodeHandler_CreateDefaults(t *testing.T) {
	h, _, _, _ := testHandler(t)

	w := doRequest(t, h, http.MethodPost, "/v1/episodes", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp EpisodeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 20, resp.Episode.TurnLimit)
}

func TestEpisodeHandler_ReadAndDelete(t *testing.T) {
	h, store, _, _ := testHandler(t)

	es := state.NewEpisodeState(7, 10)
	require.NoError(t, store.SaveEpisode(context.Background(), es))

	w := doRequest(t, h, http.MethodGet, "/v1/episodes/"+es.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp EpisodeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, es.ID, resp.Episode.ID)

	w = doRequest(t, h, http.MethodDelete, "/v1/episodes/"+es.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	saved, err := store.LoadEpisode(context.Background(), es.ID)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestEpisodeHandler_ReadMissing(t *testing.T) {
	h, _, _, _ := testHandler(t)

	w := doRequest(t, h, http.MethodGet, "/v1/episodes/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEpisodeHandler_InvalidID(t *testing.T) {
	h, _, _, _ := testHandler(t)

	w := doRequest(t, h, http.MethodGet, "/v1/episodes/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEpisodeHandler_MethodNotAllowed(t *testing.T) {
	h, _, _, _ := testHandler(t)

	w := doRequest(t, h, http.MethodGet, "/v1/episodes", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestEpisodeHandler_Enqueue(t *testing.T) {
	h, store, _, q := testHandler(t)

	es := state.NewEpisodeState(1, 10)
	require.NoError(t, store.SaveEpisode(context.Background(), es))

	w := doRequest(t, h, http.MethodPost, "/v1/episodes/"+es.ID.String()+"/enqueue", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	depth, err := q.Depth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
}

func TestEpisodeHandler_EnqueueMissing(t *testing.T) {
	h, _, _, _ := testHandler(t)

	w := doRequest(t, h, http.MethodPost, "/v1/episodes/"+uuid.New().String()+"/enqueue", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
