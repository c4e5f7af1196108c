package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/trade-arena/pkg/negotiation"
	"github.com/jwebster45206/trade-arena/pkg/state"
)

// EpisodeResponse matches the API episode envelope: the state snapshot plus
// both per-player instruction prompts.
type EpisodeResponse struct {
	Episode *state.EpisodeState `json:"episode"`
	Prompts [2]string           `json:"prompts"`
}

// TurnResponse matches the API turn result envelope.
type TurnResponse struct {
	Result  *negotiation.TurnResult `json:"result"`
	Episode *state.EpisodeState     `json:"episode"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func createEpisode(client *http.Client, cfg *ConsoleConfig) (*EpisodeResponse, error) {
	req := map[string]interface{}{}
	if cfg.Seed != nil {
		req["seed"] = *cfg.Seed
	}
	if cfg.TurnLimit != nil {
		req["turn_limit"] = *cfg.TurnLimit
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		cfg.APIBaseURL+"/v1/episodes",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to create episode: %s", errorResp.Error)
	}

	var created EpisodeResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to parse episode response: %w", err)
	}
	return &created, nil
}

func getEpisode(client *http.Client, baseURL string, episodeID uuid.UUID) (*EpisodeResponse, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/episodes/%s", baseURL, episodeID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to get episode: %s", errorResp.Error)
	}

	var episode EpisodeResponse
	if err := json.Unmarshal(body, &episode); err != nil {
		return nil, fmt.Errorf("failed to parse episode response: %w", err)
	}
	return &episode, nil
}

func sendTurn(client *http.Client, baseURL string, episodeID uuid.UUID, playerID int, text string) (*TurnResponse, error) {
	reqBody := map[string]interface{}{
		"player_id": playerID,
		"text":      text,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/episodes/%s/turns", baseURL, episodeID),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("turn rejected: %s", errorResp.Error)
	}

	var turnResp TurnResponse
	if err := json.Unmarshal(body, &turnResp); err != nil {
		return nil, fmt.Errorf("failed to parse turn response: %w", err)
	}
	return &turnResp, nil
}
