package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brancaskitchen/office-rpg/pkg/prompts"
)

const (
	DefaultTemperature = 0.7
	DefaultTopP        = 0.9
	DefaultMinTokens   = 64
)

// ReplicateService implements GenerationService against the Replicate
// proxy worker. The worker forwards the llama-style template unchanged
// and relays the prediction output.
type ReplicateService struct {
	baseURL    string
	httpClient *http.Client
}

var _ GenerationService = (*ReplicateService)(nil)

// NewReplicateService creates a generation client for the given proxy URL.
func NewReplicateService(baseURL string, timeout time.Duration) *ReplicateService {
	return &ReplicateService{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// replicateRequest is the proxy request body.
type replicateRequest struct {
	Prompt         string  `json:"prompt"`
	PromptTemplate string  `json:"prompt_template"`
	MaxTokens      int     `json:"max_tokens"`
	MinTokens      int     `json:"min_tokens"`
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"top_p"`
}

// replicateOutput tolerates both output shapes the proxy relays: a single
// string or a list of chunks that concatenate into the response.
type replicateOutput struct {
	parts []string
}

func (o *replicateOutput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		o.parts = []string{s}
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		o.parts = arr
		return nil
	}
	return fmt.Errorf("unexpected output shape: %s", string(data))
}

func (o *replicateOutput) String() string {
	return strings.Join(o.parts, "")
}

type replicateResponse struct {
	Output replicateOutput `json:"output"`
	Error  string          `json:"error,omitempty"`
}

// Generate runs one completion through the proxy.
func (s *ReplicateService) Generate(ctx context.Context, prompt prompts.GenerationPrompt) (string, error) {
	reqBody, err := json.Marshal(replicateRequest{
		Prompt:         prompt.Prompt,
		PromptTemplate: prompt.Template,
		MaxTokens:      prompt.MaxTokens,
		MinTokens:      DefaultMinTokens,
		Temperature:    DefaultTemperature,
		TopP:           DefaultTopP,
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

	var genResp replicateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if genResp.Error != "" {
		return "", fmt.Errorf("API error: %s", genResp.Error)
	}

	output := genResp.Output.String()
	if output == "" {
		return "", fmt.Errorf("empty generation output")
	}
	return output, nil
}
