package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brancaskitchen/office-rpg/pkg/prompts"
)

func TestReplicateService_Generate(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		status      int
		want        string
		expectError bool
	}{
		{
			name:     "string output",
			response: `{"output": "[MESSAGE]Hello.[/MESSAGE]"}`,
			status:   http.StatusOK,
			want:     "[MESSAGE]Hello.[/MESSAGE]",
		},
		{
			name:     "chunked output joined",
			response: `{"output": ["[MESSAGE]Hel", "lo.", "[/MESSAGE]"]}`,
			status:   http.StatusOK,
			want:     "[MESSAGE]Hello.[/MESSAGE]",
		},
		{
			name:        "api error field",
			response:    `{"error": "model overloaded"}`,
			status:      http.StatusOK,
			expectError: true,
		},
		{
			name:        "http error status",
			response:    `upstream exploded`,
			status:      http.StatusBadGateway,
			expectError: true,
		},
		{
			name:        "empty output",
			response:    `{"output": ""}`,
			status:      http.StatusOK,
			expectError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}

				var req replicateRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("failed to decode request: %v", err)
				}
				if req.MinTokens != DefaultMinTokens {
					t.Errorf("expected min_tokens %d, got %d", DefaultMinTokens, req.MinTokens)
				}
				if req.Temperature != DefaultTemperature {
					t.Errorf("expected temperature %v, got %v", DefaultTemperature, req.Temperature)
				}

				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.response))
			}))
			defer server.Close()

			svc := NewReplicateService(server.URL, 5*time.Second)
			got, err := svc.Generate(context.Background(), prompts.GenerationPrompt{
				Prompt:    "look around",
				Template:  "template",
				MaxTokens: 512,
			})

			if tc.expectError {
				if err == nil {
					t.Fatal("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestWorkerImageService_Retries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			_, _ = w.Write([]byte(`{"output": []}`))
			return
		}
		_, _ = w.Write([]byte(`{"output": ["https://img.example/x.png"]}`))
	}))
	defer server.Close()

	svc := NewWorkerImageService(server.URL, 5*time.Second)
	url, err := svc.GenerateImage(context.Background(), "a stapler")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://img.example/x.png" {
		t.Errorf("unexpected url %q", url)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWorkerImageService_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		_, _ = w.Write([]byte(`{"error": "boom"}`))
	}))
	defer server.Close()

	svc := NewWorkerImageService(server.URL, 5*time.Second)
	if _, err := svc.GenerateImage(context.Background(), "a stapler"); err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWorkerAnimationService_List(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/list" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"files": [
			{"name": "Animations/Walking.gif", "size": 100},
			{"name": "Animations/Victory Dance.gif", "size": 200},
			{"name": "thumbnails/Walking.png", "size": 10},
			{"name": "Animations/Idle.gif", "size": 50}
		]}`))
	}))
	defer server.Close()

	svc := NewWorkerAnimationService(server.URL)
	names, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Idle", "Victory Dance", "Walking"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %v, got %v", want, names)
			break
		}
	}
}

func TestIconCache(t *testing.T) {
	images := NewMockImageService("https://img.example/icon.png")
	cache := NewIconCache(images)

	url, err := cache.GetOrGenerate(context.Background(), "Coffee Pod")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://img.example/icon.png" {
		t.Errorf("unexpected url %q", url)
	}

	// Same name in different case hits the cache.
	if _, err := cache.GetOrGenerate(context.Background(), "coffee pod"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(images.Calls) != 1 {
		t.Errorf("expected 1 image generation, got %d", len(images.Calls))
	}
}

func TestAssetPath(t *testing.T) {
	if got := AssetPath("Walking"); got != "Animations/Walking.gif" {
		t.Errorf("unexpected path %q", got)
	}
	if got := AssetPath(""); got != "" {
		t.Errorf("expected empty path, got %q", got)
	}
}
