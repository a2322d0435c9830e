package game

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Mode is the coarse narrative mode the session is in.
type Mode string

const (
	ModeExploring Mode = "exploring"
	ModeCombat    Mode = "combat"
	ModeMerchant  Mode = "merchant"
)

// Enemy is the current combat target, when one exists.
type Enemy struct {
	Type string `json:"type"`
	HP   int    `json:"hp"`
	Str  int    `json:"str,omitempty"`
	Def  int    `json:"def,omitempty"`
}

// CharacterInfo is the generated character identity, parsed once from the
// creation response.
type CharacterInfo struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Gender       string `json:"gender,omitempty"`
	Look         string `json:"look,omitempty"`
	Backstory    string `json:"backstory"`
	Mission      string `json:"mission,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// HistoryLimit bounds the undo stack. The oldest snapshot is dropped when
// a push would exceed it.
const HistoryLimit = 50

// Snapshot captures the mutable turn state for single-step undo.
type Snapshot struct {
	Messages  []Message `json:"messages"`
	Stats     []Stat    `json:"stats"`
	Inventory Inventory `json:"inventory"`
	Coins     int       `json:"coins"`
	Enemy     *Enemy    `json:"enemy,omitempty"`
	Mode      Mode      `json:"mode"`
}

// GameState is the full state of one play session. It is owned by the
// turn processor; handlers and clients only ever see committed copies.
type GameState struct {
	ID    uuid.UUID `json:"id"`
	Epoch int       `json:"epoch"` // bumped on reset/undo; stale async results check it

	Character *CharacterInfo `json:"character,omitempty"`

	Stats       []Stat    `json:"stats"`
	Inventory   Inventory `json:"inventory"`
	Coins       int       `json:"coins"`
	SkillPoints int       `json:"skill_points"`

	// LevelUpPending is set when a threshold was crossed this turn and the
	// client owes the player a point-distribution prompt.
	LevelUpPending bool `json:"level_up_pending,omitempty"`

	Messages []Message `json:"messages"`
	Enemy    *Enemy    `json:"enemy,omitempty"`
	Mode     Mode      `json:"mode"`

	// Animations is the asset list offered to the generator; Selected is
	// the animation chosen in the last response.
	Animations        []string `json:"animations,omitempty"`
	SelectedAnimation string   `json:"selected_animation,omitempty"`

	SceneImage string `json:"scene_image,omitempty"`

	Turns     int        `json:"turns"`
	History   []Snapshot `json:"history,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewGameState creates an empty session in exploring mode.
func NewGameState() *GameState {
	return &GameState{
		ID:        uuid.New(),
		Mode:      ModeExploring,
		Messages:  make([]Message, 0),
		Inventory: make(Inventory, 0),
		CreatedAt: time.Now(),
	}
}

// Stat returns the stat with the given key, or nil.
func (gs *GameState) Stat(key string) *Stat {
	for i := range gs.Stats {
		if gs.Stats[i].Key == key {
			return &gs.Stats[i]
		}
	}
	return nil
}

// StatValue returns the value of the named stat, or 0 when absent.
func (gs *GameState) StatValue(key string) int {
	if s := gs.Stat(key); s != nil {
		return s.Value
	}
	return 0
}

// Level returns the level stat. Every created character has one.
func (gs *GameState) Level() *Stat {
	return gs.Stat(StatLevel)
}

// PushHistory deep-copies the mutable turn state onto the undo stack,
// dropping the oldest snapshot past HistoryLimit.
func (gs *GameState) PushHistory() error {
	snap := Snapshot{
		Messages:  gs.Messages,
		Stats:     gs.Stats,
		Inventory: gs.Inventory,
		Coins:     gs.Coins,
		Enemy:     gs.Enemy,
		Mode:      gs.Mode,
	}

	// Deep copy via JSON round-trip, so later in-place mutation of the
	// live slices cannot reach into the snapshot.
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to snapshot game state: %w", err)
	}
	var copied Snapshot
	if err := json.Unmarshal(data, &copied); err != nil {
		return fmt.Errorf("failed to restore snapshot copy: %w", err)
	}

	gs.History = append(gs.History, copied)
	if len(gs.History) > HistoryLimit {
		gs.History = gs.History[len(gs.History)-HistoryLimit:]
	}
	return nil
}

// Undo restores the most recent snapshot and pops it. It reports whether
// anything was undone; an empty stack is a no-op.
func (gs *GameState) Undo() bool {
	if len(gs.History) == 0 {
		return false
	}

	last := gs.History[len(gs.History)-1]
	gs.History = gs.History[:len(gs.History)-1]

	gs.Messages = last.Messages
	gs.Stats = last.Stats
	gs.Inventory = last.Inventory
	gs.Coins = last.Coins
	gs.Enemy = last.Enemy
	gs.Mode = last.Mode
	gs.Epoch++
	return true
}

// DeepCopy returns an independent copy of the game state.
func (gs *GameState) DeepCopy() (*GameState, error) {
	data, err := json.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal game state: %w", err)
	}
	var copied GameState
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game state copy: %w", err)
	}
	return &copied, nil
}

// RecentContext returns the content of the last n messages, for prompt
// assembly.
func (gs *GameState) RecentContext(n int) []string {
	start := len(gs.Messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, 0, n)
	for _, m := range gs.Messages[start:] {
		out = append(out, m.Content)
	}
	return out
}
