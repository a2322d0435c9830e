package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brancaskitchen/office-rpg/internal/services"
	"github.com/brancaskitchen/office-rpg/internal/services/queue"
	"github.com/brancaskitchen/office-rpg/internal/storage"
	"github.com/brancaskitchen/office-rpg/pkg/directive"
	"github.com/brancaskitchen/office-rpg/pkg/game"
	"github.com/brancaskitchen/office-rpg/pkg/prompts"
)

var (
	// ErrSessionNotFound means the session ID has no stored state.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionBusy means another turn for the same session is still
	// being processed.
	ErrSessionBusy = errors.New("session is processing another turn")

	// ErrGenerationFailed marks upstream generation failures so handlers
	// can report them as a bad gateway rather than an internal error.
	ErrGenerationFailed = errors.New("generation service failed")
)

// creationAttempts bounds retries when the generator returns an
// incomplete character sheet.
const creationAttempts = 3

// turnFailureMessage is shown when generation fails. The turn leaves no
// other trace on the session.
const turnFailureMessage = "Something went wrong processing your move. Try again."

// TurnProcessor owns all session mutation: character creation, turn
// processing, undo and skill distribution. Handlers call it synchronously
// and never touch game state themselves.
type TurnProcessor struct {
	storage    storage.Storage
	gen        services.GenerationService
	images     services.ImageService
	animations services.AnimationService
	queue      *queue.IllustrationQueue
	logger     *slog.Logger
	genTimeout time.Duration

	busyMu sync.Mutex
	busy   map[uuid.UUID]bool
}

// NewTurnProcessor creates a new turn processor. The image and animation
// services and the illustration queue are optional; nil disables the
// corresponding feature.
func NewTurnProcessor(
	store storage.Storage,
	gen services.GenerationService,
	images services.ImageService,
	animations services.AnimationService,
	illustrations *queue.IllustrationQueue,
	genTimeout time.Duration,
	logger *slog.Logger,
) *TurnProcessor {
	if genTimeout <= 0 {
		genTimeout = 60 * time.Second
	}
	return &TurnProcessor{
		storage:    store,
		gen:        gen,
		images:     images,
		animations: animations,
		queue:      illustrations,
		logger:     logger,
		genTimeout: genTimeout,
		busy:       make(map[uuid.UUID]bool),
	}
}

// CreateSession rolls a fresh character from the player's path words and
// stores the new session. Profile illustration failures are tolerated;
// an incomplete character sheet after retries is not.
func (p *TurnProcessor) CreateSession(ctx context.Context, pathWords string) (*game.GameState, error) {
	gs := game.NewGameState()
	gs.Stats = game.NewCharacterStats()

	if p.animations != nil {
		animations, err := p.animations.List(ctx)
		if err != nil {
			p.logger.Warn("Failed to list animations, continuing without", "error", err)
		} else {
			gs.Animations = animations
		}
	}

	sheet, err := p.generateCharacter(ctx, pathWords)
	if err != nil {
		return nil, err
	}

	gs.Character = &game.CharacterInfo{
		Name:      sheet.Name,
		Type:      sheet.Type,
		Gender:    sheet.Gender,
		Look:      sheet.Look,
		Backstory: sheet.Backstory,
		Mission:   sheet.Mission,
	}
	if sheet.Weapon != nil {
		gs.Inventory = gs.Inventory.Add([]game.Item{*sheet.Weapon})
	}
	if sheet.Armor != nil {
		gs.Inventory = gs.Inventory.Add([]game.Item{*sheet.Armor})
	}
	gs.Inventory = gs.Inventory.Add(sheet.Items)
	gs.Coins = sheet.Coins

	gs.Messages = append(gs.Messages, game.Message{
		Content:     fmt.Sprintf("%s\n\n%s", sheet.Backstory, sheet.Mission),
		Suggestions: sheet.Suggested,
		CreatedAt:   time.Now(),
	})

	if p.images != nil {
		prompt := profileImagePrompt(gs.Character)
		url, err := p.images.GenerateImage(ctx, prompt)
		if err != nil {
			p.logger.Warn("Profile image generation failed, continuing without", "error", err)
		} else {
			gs.Character.ProfileImage = url
		}
	}

	if err := p.storage.SaveSession(ctx, gs.ID, gs); err != nil {
		return nil, fmt.Errorf("failed to save new session: %w", err)
	}

	p.logger.Info("Session created",
		"session_id", gs.ID.String(),
		"character", gs.Character.Name,
		"type", gs.Character.Type)
	return gs, nil
}

func (p *TurnProcessor) generateCharacter(ctx context.Context, pathWords string) (*directive.CharacterSheet, error) {
	var lastErr error
	for attempt := 1; attempt <= creationAttempts; attempt++ {
		genCtx, cancel := context.WithTimeout(ctx, p.genTimeout)
		raw, err := p.gen.Generate(genCtx, prompts.CreationPrompt(pathWords))
		cancel()
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrGenerationFailed, err)
		}

		sheet, err := directive.ExtractCharacter(raw)
		if err == nil {
			return sheet, nil
		}

		lastErr = err
		var incomplete *directive.IncompleteSheetError
		if !errors.As(err, &incomplete) {
			break
		}
		p.logger.Warn("Incomplete character sheet, retrying",
			"attempt", attempt, "missing", incomplete.Missing)
	}
	return nil, fmt.Errorf("character creation failed after %d attempts: %w", creationAttempts, lastErr)
}

// ProcessTurn runs one player turn: push undo history, generate the
// response, extract directives and apply them, then commit. A generation
// failure commits only the player's message and a system notice, leaving
// stats, inventory and history untouched.
func (p *TurnProcessor) ProcessTurn(ctx context.Context, id uuid.UUID, message string, diceRoll int) (*game.GameState, error) {
	if !p.acquire(id) {
		return nil, ErrSessionBusy
	}
	defer p.release(id)

	gs, err := p.storage.LoadSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if gs == nil {
		return nil, ErrSessionNotFound
	}

	work, err := gs.DeepCopy()
	if err != nil {
		return nil, fmt.Errorf("failed to copy session: %w", err)
	}
	if err := work.PushHistory(); err != nil {
		return nil, fmt.Errorf("failed to push undo history: %w", err)
	}

	// Prompt context is the pre-turn transcript; the player's input rides
	// in the user slot of the template.
	gp, err := prompts.New().
		WithGameState(work).
		WithUserMessage(message).
		WithDiceRoll(diceRoll).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build turn prompt: %w", err)
	}

	work.Messages = append(work.Messages, game.Message{
		Content:   message,
		IsUser:    true,
		CreatedAt: time.Now(),
	})
	work.Turns++

	genCtx, cancel := context.WithTimeout(ctx, p.genTimeout)
	defer cancel()

	p.logger.Debug("Sending turn to generator", "session_id", id.String(), "dice_roll", diceRoll)
	raw, err := p.gen.Generate(genCtx, gp)
	if err != nil {
		p.logger.Error("Generation failed", "error", err, "session_id", id.String())
		return p.commitFailedTurn(ctx, gs, message)
	}

	d := directive.Extract(raw)
	for _, pe := range d.Errors {
		p.logger.Warn("Dropped unparseable directive", "session_id", id.String(), "detail", pe.Error())
	}

	p.apply(work, d)

	display := directive.AssembleDisplay(raw, d.Messages)
	work.Messages = append(work.Messages, game.Message{
		Content:     display,
		Suggestions: d.Suggestions,
		CreatedAt:   time.Now(),
	})

	// A delete or reset may have landed while generation was in flight.
	// Committing the worked copy would resurrect or clobber it, so check
	// the stored state before saving.
	latest, stale, err := p.reloadForCommit(ctx, id, work.Epoch)
	if err != nil {
		return nil, err
	}
	if stale {
		return latest, nil
	}

	p.enqueueIllustrations(ctx, work, d)

	if err := p.storage.SaveSession(ctx, work.ID, work); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return work, nil
}

// reloadForCommit re-reads the stored session just before a turn commit.
// It returns the stored state and stale=true when the in-flight result
// must be dropped because the epoch moved, or ErrSessionNotFound when the
// session was deleted mid-turn.
func (p *TurnProcessor) reloadForCommit(ctx context.Context, id uuid.UUID, epoch int) (*game.GameState, bool, error) {
	latest, err := p.storage.LoadSession(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("failed to reload session: %w", err)
	}
	if latest == nil {
		p.logger.Info("Discarding turn for deleted session", "session_id", id.String())
		return nil, false, ErrSessionNotFound
	}
	if latest.Epoch != epoch {
		p.logger.Info("Discarding stale turn result",
			"session_id", id.String(), "turn_epoch", epoch, "session_epoch", latest.Epoch)
		return latest, true, nil
	}
	return latest, false, nil
}

// apply folds extracted directives into the working state.
func (p *TurnProcessor) apply(work *game.GameState, d *directive.Directives) {
	work.ApplyStatChanges(d.StatChanges)

	if d.EnemyDamage != nil {
		work.ApplyEnemyDamage(*d.EnemyDamage)
		if work.Enemy != nil && work.Enemy.HP == 0 {
			p.logger.Info("Enemy defeated", "session_id", work.ID.String(), "enemy", work.Enemy.Type)
			work.Enemy = nil
			work.Mode = game.ModeExploring
		}
	}

	if d.Coins != nil {
		work.ApplyCoins(*d.Coins)
	}

	work.Inventory = work.Inventory.Remove(d.RemoveItems)
	work.Inventory = work.Inventory.Add(d.AddItems)

	if d.Animation != "" {
		work.SelectedAnimation = d.Animation
	}
}

// commitFailedTurn saves the player's message plus a system notice on the
// original loaded state. No stats move and no undo snapshot is taken.
func (p *TurnProcessor) commitFailedTurn(ctx context.Context, gs *game.GameState, message string) (*game.GameState, error) {
	latest, stale, err := p.reloadForCommit(ctx, gs.ID, gs.Epoch)
	if err != nil {
		return nil, err
	}
	if stale {
		return latest, nil
	}

	now := time.Now()
	gs.Messages = append(gs.Messages,
		game.Message{Content: message, IsUser: true, CreatedAt: now},
		game.Message{Content: turnFailureMessage, IsSystem: true, CreatedAt: now},
	)
	if err := p.storage.SaveSession(ctx, gs.ID, gs); err != nil {
		return nil, fmt.Errorf("failed to save session after generation failure: %w", err)
	}
	return gs, nil
}

// enqueueIllustrations queues async image jobs for the turn: a scene
// illustration when a subject was tagged, and icons for new items.
func (p *TurnProcessor) enqueueIllustrations(ctx context.Context, work *game.GameState, d *directive.Directives) {
	if p.queue == nil {
		return
	}

	if d.Subject != "" {
		job := queue.Job{
			SessionID: work.ID,
			Epoch:     work.Epoch,
			Kind:      queue.JobScene,
			Prompt:    subjectImagePrompt(d.Subject),
		}
		if err := p.queue.Enqueue(ctx, job); err != nil {
			p.logger.Warn("Failed to enqueue scene illustration", "error", err, "session_id", work.ID.String())
		}
	}

	// Icon jobs carry only the item name; the worker derives the prompt
	// and memoizes icons per item.
	for _, item := range d.AddItems {
		job := queue.Job{
			SessionID: work.ID,
			Epoch:     work.Epoch,
			Kind:      queue.JobIcon,
			ItemName:  item.Name,
		}
		if err := p.queue.Enqueue(ctx, job); err != nil {
			p.logger.Warn("Failed to enqueue item icon", "error", err, "session_id", work.ID.String(), "item", item.Name)
		}
	}
}

// Undo restores the previous snapshot. It reports whether anything was
// undone; an empty history is a successful no-op.
func (p *TurnProcessor) Undo(ctx context.Context, id uuid.UUID) (*game.GameState, bool, error) {
	if !p.acquire(id) {
		return nil, false, ErrSessionBusy
	}
	defer p.release(id)

	gs, err := p.storage.LoadSession(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session: %w", err)
	}
	if gs == nil {
		return nil, false, ErrSessionNotFound
	}

	undone := gs.Undo()
	if undone {
		if err := p.storage.SaveSession(ctx, gs.ID, gs); err != nil {
			return nil, false, fmt.Errorf("failed to save session after undo: %w", err)
		}
	}
	return gs, undone, nil
}

// SpendSkillPoint raises one stat by one, consuming a pending skill point.
func (p *TurnProcessor) SpendSkillPoint(ctx context.Context, id uuid.UUID, statKey string) (*game.GameState, error) {
	if !p.acquire(id) {
		return nil, ErrSessionBusy
	}
	defer p.release(id)

	gs, err := p.storage.LoadSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if gs == nil {
		return nil, ErrSessionNotFound
	}

	if err := gs.DistributeSkillPoint(statKey); err != nil {
		return nil, err
	}
	if err := p.storage.SaveSession(ctx, gs.ID, gs); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return gs, nil
}

// DeleteSession removes the session from storage. Deletion takes the same
// per-session lock as turns, so it cannot interleave with an in-flight
// generation and be silently undone by the turn's commit.
func (p *TurnProcessor) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if !p.acquire(id) {
		return ErrSessionBusy
	}
	defer p.release(id)

	if err := p.storage.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (p *TurnProcessor) acquire(id uuid.UUID) bool {
	p.busyMu.Lock()
	defer p.busyMu.Unlock()
	if p.busy[id] {
		return false
	}
	p.busy[id] = true
	return true
}

func (p *TurnProcessor) release(id uuid.UUID) {
	p.busyMu.Lock()
	defer p.busyMu.Unlock()
	delete(p.busy, id)
}

func profileImagePrompt(c *game.CharacterInfo) string {
	return fmt.Sprintf(
		"anime style portrait of a %s %s, %s, high quality, detailed anime art style, studio ghibli inspired",
		strings.ToLower(c.Gender), strings.ToLower(c.Type), strings.ToLower(c.Look))
}

// subjectImagePrompt turns a SUBJECT tag body (kind|type|description)
// into an illustration prompt built from its description segment.
func subjectImagePrompt(subject string) string {
	parts := strings.Split(subject, "|")
	desc := strings.TrimSpace(parts[len(parts)-1])
	if desc == "" {
		desc = subject
	}
	return "anime style illustration of " + desc + ", high quality, detailed anime art style"
}
