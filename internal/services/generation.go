package services

import (
	"context"

	"github.com/brancaskitchen/office-rpg/pkg/prompts"
)

// GenerationService defines the interface for the text generator backing
// character creation and turn narration.
type GenerationService interface {
	// Generate runs one completion and returns the raw tagged response.
	Generate(ctx context.Context, prompt prompts.GenerationPrompt) (string, error)
}

// ImageService defines the interface for illustration generation.
type ImageService interface {
	// GenerateImage returns the URL of a generated image for the prompt.
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// AnimationService lists the animation assets offered to the generator.
type AnimationService interface {
	List(ctx context.Context) ([]string, error)
}
