package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/brancaskitchen/office-rpg/pkg/game"
)

type ErrorResponse struct {
	Error string `json:"error"`
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

// decodeSession reads a session response body, unwrapping API errors.
func decodeSession(resp *http.Response, wantStatus int) (*game.GameState, error) {
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("%s", errorResp.Error)
	}

	var gs game.GameState
	if err := json.Unmarshal(body, &gs); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	return &gs, nil
}

func createSession(client *http.Client, baseURL, pathWords string) (*game.GameState, error) {
	jsonData, err := json.Marshal(map[string]string{"path_words": pathWords})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(baseURL+"/v1/sessions", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return decodeSession(resp, http.StatusCreated)
}

func getSession(client *http.Client, baseURL string, id uuid.UUID) (*game.GameState, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/sessions/%s", baseURL, id))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return decodeSession(resp, http.StatusOK)
}

func playTurn(client *http.Client, baseURL string, id uuid.UUID, message string, diceRoll int) (*game.GameState, error) {
	jsonData, err := json.Marshal(map[string]any{
		"message":   message,
		"dice_roll": diceRoll,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/sessions/%s/turns", baseURL, id),
		"application/json",
		bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return decodeSession(resp, http.StatusOK)
}

func undoTurn(client *http.Client, baseURL string, id uuid.UUID) (*game.GameState, error) {
	resp, err := client.Post(fmt.Sprintf("%s/v1/sessions/%s/undo", baseURL, id), "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return decodeSession(resp, http.StatusOK)
}

func spendSkillPoint(client *http.Client, baseURL string, id uuid.UUID, stat string) (*game.GameState, error) {
	jsonData, err := json.Marshal(map[string]string{"stat": stat})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/sessions/%s/skills", baseURL, id),
		"application/json",
		bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return decodeSession(resp, http.StatusOK)
}
