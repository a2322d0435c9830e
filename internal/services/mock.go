package services

import (
	"context"
	"sync"

	"github.com/brancaskitchen/office-rpg/pkg/prompts"
)

// MockGenerationService is a mock implementation of GenerationService for
// testing. Responses are returned in the order they were queued; when the
// queue is exhausted the last response repeats. GenerateFunc, when set,
// replaces the canned responses entirely.
type MockGenerationService struct {
	mu        sync.Mutex
	responses []string
	err       error
	Calls     []prompts.GenerationPrompt

	GenerateFunc func(ctx context.Context, prompt prompts.GenerationPrompt) (string, error)
}

var _ GenerationService = (*MockGenerationService)(nil)

func NewMockGenerationService(responses ...string) *MockGenerationService {
	return &MockGenerationService{responses: responses}
}

// SetError configures the mock to fail every call with the given error.
func (m *MockGenerationService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockGenerationService) Generate(ctx context.Context, prompt prompts.GenerationPrompt) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, prompt)
	err := m.err
	fn := m.GenerateFunc
	var resp string
	if len(m.responses) > 0 {
		resp = m.responses[0]
		if len(m.responses) > 1 {
			m.responses = m.responses[1:]
		}
	}
	m.mu.Unlock()

	if err != nil {
		return "", err
	}
	// Called outside the lock so the hook may touch shared test fixtures.
	if fn != nil {
		return fn(ctx, prompt)
	}
	return resp, nil
}

// MockImageService is a mock implementation of ImageService for testing.
type MockImageService struct {
	mu    sync.Mutex
	URL   string
	err   error
	Calls []string
}

var _ ImageService = (*MockImageService)(nil)

func NewMockImageService(url string) *MockImageService {
	return &MockImageService{URL: url}
}

func (m *MockImageService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockImageService) GenerateImage(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.URL, nil
}

// MockAnimationService is a mock implementation of AnimationService for
// testing.
type MockAnimationService struct {
	Animations []string
	Err        error
}

var _ AnimationService = (*MockAnimationService)(nil)

func (m *MockAnimationService) List(ctx context.Context) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Animations, nil
}
