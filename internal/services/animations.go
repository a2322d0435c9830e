package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// animationPrefix is the asset-store folder holding the usable gifs.
const animationPrefix = "Animations/"

// WorkerAnimationService implements AnimationService against the
// animation asset worker, which lists an R2 bucket.
type WorkerAnimationService struct {
	baseURL    string
	httpClient *http.Client
}

var _ AnimationService = (*WorkerAnimationService)(nil)

// NewWorkerAnimationService creates an animation client for the asset worker.
func NewWorkerAnimationService(baseURL string) *WorkerAnimationService {
	return &WorkerAnimationService{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type animationListResponse struct {
	Files []struct {
		Name string `json:"name"`
	} `json:"files"`
}

// List returns the available animation names, sorted, with the folder
// prefix and .gif extension stripped.
func (s *WorkerAnimationService) List(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/list", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var listResp animationListResponse
	if err := json.Unmarshal(body, &listResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	names := make([]string, 0, len(listResp.Files))
	for _, f := range listResp.Files {
		if !strings.HasPrefix(f.Name, animationPrefix) {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(f.Name, animationPrefix), ".gif")
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// AssetPath returns the store path for a selected animation name.
func AssetPath(name string) string {
	if name == "" {
		return ""
	}
	return animationPrefix + name + ".gif"
}
