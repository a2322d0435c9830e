package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/brancaskitchen/office-rpg/pkg/game"
)

// Storage defines the persistence interface for game sessions.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Session operations. LoadSession returns (nil, nil) when the session
	// does not exist.
	SaveSession(ctx context.Context, id uuid.UUID, gs *game.GameState) error
	LoadSession(ctx context.Context, id uuid.UUID) (*game.GameState, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}
