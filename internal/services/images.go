package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	imageWidth  = 1024
	imageHeight = 1024

	// imageAttempts is the total tries per prompt. The backend model
	// intermittently returns empty output; immediate retries usually
	// recover it.
	imageAttempts = 3

	negativePrompt = "worst quality, low quality, nsfw, nude, naked, suggestive, inappropriate, adult content, explicit content, violence, gore, blood, disturbing content, offensive content"
)

// WorkerImageService implements ImageService against the image proxy
// worker, which fronts an SDXL-Lightning deployment.
type WorkerImageService struct {
	baseURL    string
	httpClient *http.Client
}

var _ ImageService = (*WorkerImageService)(nil)

// NewWorkerImageService creates an image client for the given proxy URL.
func NewWorkerImageService(baseURL string, timeout time.Duration) *WorkerImageService {
	return &WorkerImageService{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type imageRequest struct {
	Prompt            string  `json:"prompt"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	Scheduler         string  `json:"scheduler"`
	NumOutputs        int     `json:"num_outputs"`
	GuidanceScale     float64 `json:"guidance_scale"`
	NegativePrompt    string  `json:"negative_prompt"`
	NumInferenceSteps int     `json:"num_inference_steps"`
}

type imageResponse struct {
	Output []string `json:"output"`
	Error  string   `json:"error,omitempty"`
}

// GenerateImage returns the URL of a generated image, retrying failed
// attempts immediately.
func (s *WorkerImageService) GenerateImage(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= imageAttempts; attempt++ {
		url, err := s.generate(ctx, prompt)
		if err == nil {
			return url, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("image generation failed after %d attempts: %w", imageAttempts, lastErr)
}

func (s *WorkerImageService) generate(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(imageRequest{
		Prompt:            prompt,
		Width:             imageWidth,
		Height:            imageHeight,
		Scheduler:         "K_EULER",
		NumOutputs:        1,
		GuidanceScale:     0,
		NegativePrompt:    negativePrompt,
		NumInferenceSteps: 4,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var imgResp imageResponse
	if err := json.Unmarshal(body, &imgResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if imgResp.Error != "" {
		return "", fmt.Errorf("API error: %s", imgResp.Error)
	}
	if len(imgResp.Output) == 0 || imgResp.Output[0] == "" {
		return "", fmt.Errorf("no image URL in response")
	}
	return imgResp.Output[0], nil
}
