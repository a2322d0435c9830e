package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/brancaskitchen/office-rpg/internal/services"
	"github.com/brancaskitchen/office-rpg/internal/services/queue"
	"github.com/brancaskitchen/office-rpg/internal/storage"
	"github.com/brancaskitchen/office-rpg/pkg/game"
	"github.com/brancaskitchen/office-rpg/pkg/prompts"
)

const creationResponse = `[NAME]Gary Spreadsheet[/NAME]
[TYPE]Accountant[/TYPE]
[GENDER]male[/GENDER]
[LOOK]rumpled shirt, calculator watch[/LOOK]
[BACKSTORY]Twenty years in accounts payable, one unexplained audit.[/BACKSTORY]
[MISSION]Find the missing quarterly report before Friday.[/MISSION]
[WEAPON]Stapler of Doom|4DMG[/WEAPON]
[ARMOR]Cardboard Box Armor|2DEF[/ARMOR]
[ITEM]Coffee Pod|item|1|3[/ITEM]
[COINS]30[/COINS]
[MOVES]check desk, talk to Brenda[/MOVES]`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestProcessor(gen services.GenerationService) (*TurnProcessor, *storage.MockStorage) {
	store := storage.NewMockStorage()
	p := NewTurnProcessor(
		store,
		gen,
		services.NewMockImageService("https://img.example/pfp.png"),
		&services.MockAnimationService{Animations: []string{"Idle", "Walking"}},
		nil,
		time.Second,
		testLogger(),
	)
	return p, store
}

func TestCreateSession(t *testing.T) {
	gen := services.NewMockGenerationService(creationResponse)
	p, store := newTestProcessor(gen)

	gs, err := p.CreateSession(context.Background(), "goat sister pizza")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gs.Character == nil || gs.Character.Name != "Gary Spreadsheet" {
		t.Fatalf("unexpected character: %+v", gs.Character)
	}
	if gs.Character.ProfileImage != "https://img.example/pfp.png" {
		t.Errorf("expected profile image attached, got %q", gs.Character.ProfileImage)
	}
	if len(gs.Animations) != 2 {
		t.Errorf("expected animations attached, got %v", gs.Animations)
	}
	if gs.Coins != 30 {
		t.Errorf("expected 30 coins, got %d", gs.Coins)
	}

	// Starting gear: weapon, armor, and the stacked item.
	if len(gs.Inventory) != 3 {
		t.Fatalf("expected 3 inventory entries, got %+v", gs.Inventory)
	}
	if w := gs.Inventory.FirstOfType(game.ItemTypeWeapon); w == nil || w.Value == nil || *w.Value != 4 {
		t.Errorf("unexpected starting weapon: %+v", w)
	}

	if len(gs.Stats) == 0 || !gs.Stats[0].IsLevel() {
		t.Error("expected rolled stats with level first")
	}
	if len(gs.Messages) != 1 || len(gs.Messages[0].Suggestions) != 2 {
		t.Errorf("expected intro message with suggestions, got %+v", gs.Messages)
	}

	stored, err := store.LoadSession(context.Background(), gs.ID)
	if err != nil || stored == nil {
		t.Fatalf("expected session persisted, got %v %v", stored, err)
	}
}

func TestCreateSession_RetriesIncompleteSheet(t *testing.T) {
	gen := services.NewMockGenerationService(
		"[NAME]Gary[/NAME]", // missing required fields
		creationResponse,
	)
	p, _ := newTestProcessor(gen)

	gs, err := p.CreateSession(context.Background(), "goat sister pizza")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gs.Character.Name != "Gary Spreadsheet" {
		t.Errorf("unexpected character name %q", gs.Character.Name)
	}
	if len(gen.Calls) != 2 {
		t.Errorf("expected 2 generation attempts, got %d", len(gen.Calls))
	}
}

func TestCreateSession_GivesUpAfterRetries(t *testing.T) {
	gen := services.NewMockGenerationService("no tags at all")
	p, _ := newTestProcessor(gen)

	if _, err := p.CreateSession(context.Background(), "goat"); err == nil {
		t.Fatal("expected error for persistently incomplete sheet")
	}
	if len(gen.Calls) != creationAttempts {
		t.Errorf("expected %d attempts, got %d", creationAttempts, len(gen.Calls))
	}
}

func seedSession(t *testing.T, store *storage.MockStorage) *game.GameState {
	t.Helper()
	gs := game.NewGameState()
	gs.Character = &game.CharacterInfo{Name: "Gary", Type: "Accountant"}
	gs.Stats = []game.Stat{
		{Key: game.StatLevel, Name: "Level", Value: 1, MaxValue: 2, Exp: 0, MaxExp: 100},
		{Key: game.StatHealth, Name: "Health", Value: 50, MaxValue: 80},
		{Key: game.StatEnergy, Name: "Energy", Value: 20, MaxValue: 25},
		{Key: game.StatDamage, Name: "DMG", Value: 6, MaxValue: 6},
		{Key: game.StatDefense, Name: "DEF", Value: 6, MaxValue: 6},
		{Key: "strength", Name: "Strength", Value: 5},
	}
	gs.Coins = 10
	if err := store.SaveSession(context.Background(), gs.ID, gs); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	return gs
}

func TestProcessTurn(t *testing.T) {
	turnResponse := `[MESSAGE]You wrestle the photocopier and win.[/MESSAGE]
[STATS]health:-10, energy:-3[/STATS]
[EXP]15[/EXP]
[COINS]+5[/COINS]
[ADD_INV]Toner Cartridge|material|2[/ADD_INV]
[MOVES]celebrate, keep copying[/MOVES]
[ANIMATION]Victory Dance[/ANIMATION]`

	gen := services.NewMockGenerationService(turnResponse)
	p, store := newTestProcessor(gen)
	gs := seedSession(t, store)

	got, err := p.ProcessTurn(context.Background(), gs.ID, "fight the photocopier", 18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.StatValue(game.StatHealth) != 40 {
		t.Errorf("expected health 40, got %d", got.StatValue(game.StatHealth))
	}
	if got.StatValue(game.StatEnergy) != 17 {
		t.Errorf("expected energy 17, got %d", got.StatValue(game.StatEnergy))
	}
	if got.Level().Exp != 15 {
		t.Errorf("expected exp 15, got %d", got.Level().Exp)
	}
	if got.Coins != 15 {
		t.Errorf("expected coins 15, got %d", got.Coins)
	}
	if len(got.Inventory) != 1 || got.Inventory[0].Name != "Toner Cartridge" || got.Inventory[0].Quantity != 2 {
		t.Errorf("unexpected inventory: %+v", got.Inventory)
	}
	if got.SelectedAnimation != "Victory Dance" {
		t.Errorf("unexpected animation %q", got.SelectedAnimation)
	}
	if got.Turns != 1 {
		t.Errorf("expected 1 turn, got %d", got.Turns)
	}
	if len(got.History) != 1 {
		t.Errorf("expected one undo snapshot, got %d", len(got.History))
	}

	if len(got.Messages) != 2 {
		t.Fatalf("expected user + assistant messages, got %+v", got.Messages)
	}
	if !got.Messages[0].IsUser || got.Messages[0].Content != "fight the photocopier" {
		t.Errorf("unexpected user message: %+v", got.Messages[0])
	}
	if got.Messages[1].Content != "You wrestle the photocopier and win." {
		t.Errorf("unexpected assistant message: %q", got.Messages[1].Content)
	}
	if len(got.Messages[1].Suggestions) != 2 {
		t.Errorf("expected suggestions on assistant message, got %+v", got.Messages[1].Suggestions)
	}

	// Undo restores the pre-turn state.
	restored, undone, err := p.Undo(context.Background(), gs.ID)
	if err != nil || !undone {
		t.Fatalf("expected undo to succeed: %v", err)
	}
	if restored.StatValue(game.StatHealth) != 50 || restored.Coins != 10 {
		t.Errorf("undo did not restore state: health=%d coins=%d",
			restored.StatValue(game.StatHealth), restored.Coins)
	}
}

func TestProcessTurn_EnemyDefeatClearsCombat(t *testing.T) {
	gen := services.NewMockGenerationService("[MESSAGE]Down goes the manager.[/MESSAGE][DAMAGE]20[/DAMAGE]")
	p, store := newTestProcessor(gen)
	gs := seedSession(t, store)
	gs.Mode = game.ModeCombat
	gs.Enemy = &game.Enemy{Type: "Manager", HP: 12}
	if err := store.SaveSession(context.Background(), gs.ID, gs); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	got, err := p.ProcessTurn(context.Background(), gs.ID, "attack", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Enemy != nil {
		t.Errorf("expected enemy cleared, got %+v", got.Enemy)
	}
	if got.Mode != game.ModeExploring {
		t.Errorf("expected exploring mode, got %s", got.Mode)
	}
}

func TestProcessTurn_GenerationFailure(t *testing.T) {
	gen := services.NewMockGenerationService()
	gen.SetError(fmt.Errorf("model timeout"))
	p, store := newTestProcessor(gen)
	gs := seedSession(t, store)

	got, err := p.ProcessTurn(context.Background(), gs.ID, "do something", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.StatValue(game.StatHealth) != 50 || got.Coins != 10 {
		t.Error("expected no stat mutation on failed turn")
	}
	if got.Turns != 0 {
		t.Errorf("expected turn counter untouched, got %d", got.Turns)
	}
	if len(got.History) != 0 {
		t.Errorf("expected no undo snapshot, got %d", len(got.History))
	}
	if len(got.Messages) != 2 || !got.Messages[1].IsSystem {
		t.Fatalf("expected user message + system notice, got %+v", got.Messages)
	}
}

func TestProcessTurn_SessionNotFound(t *testing.T) {
	p, _ := newTestProcessor(services.NewMockGenerationService("x"))
	if _, err := p.ProcessTurn(context.Background(), uuid.New(), "hello", 0); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestProcessTurn_Busy(t *testing.T) {
	p, store := newTestProcessor(services.NewMockGenerationService("[MESSAGE]ok[/MESSAGE]"))
	gs := seedSession(t, store)

	if !p.acquire(gs.ID) {
		t.Fatal("failed to take session lock")
	}
	defer p.release(gs.ID)

	if _, err := p.ProcessTurn(context.Background(), gs.ID, "hello", 0); err != ErrSessionBusy {
		t.Errorf("expected ErrSessionBusy, got %v", err)
	}
}

func newQueuedTestProcessor(t *testing.T, gen services.GenerationService) (*TurnProcessor, *storage.MockStorage, *queue.IllustrationQueue) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := queue.NewClient(mr.Addr(), testLogger())
	if err != nil {
		t.Fatalf("failed to create queue client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	q := queue.NewIllustrationQueue(client)

	store := storage.NewMockStorage()
	p := NewTurnProcessor(
		store,
		gen,
		services.NewMockImageService("https://img.example/pfp.png"),
		&services.MockAnimationService{Animations: []string{"Idle"}},
		q,
		time.Second,
		testLogger(),
	)
	return p, store, q
}

func TestProcessTurn_EnqueuesIllustrations(t *testing.T) {
	gen := services.NewMockGenerationService(
		`[MESSAGE]A shadow falls over the cubicle.[/MESSAGE]
[SUBJECT]enemy|Manager|a looming middle manager with a red tie[/SUBJECT]
[ADD_INV]Toner Cartridge|material|2[/ADD_INV]`)
	p, store, q := newQueuedTestProcessor(t, gen)
	gs := seedSession(t, store)

	if _, err := p.ProcessTurn(context.Background(), gs.ID, "look up", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	scene, err := q.Dequeue(ctx, time.Second)
	if err != nil || scene == nil {
		t.Fatalf("expected a scene job, got %v %v", scene, err)
	}
	if scene.Kind != queue.JobScene || scene.SessionID != gs.ID || scene.Epoch != 0 {
		t.Errorf("unexpected scene job: %+v", scene)
	}
	if !strings.Contains(scene.Prompt, "a looming middle manager with a red tie") {
		t.Errorf("expected subject description in prompt, got %q", scene.Prompt)
	}

	icon, err := q.Dequeue(ctx, time.Second)
	if err != nil || icon == nil {
		t.Fatalf("expected an icon job, got %v %v", icon, err)
	}
	if icon.Kind != queue.JobIcon || icon.ItemName != "Toner Cartridge" {
		t.Errorf("unexpected icon job: %+v", icon)
	}

	depth, err := q.Depth(ctx)
	if err != nil {
		t.Fatalf("failed to get depth: %v", err)
	}
	if depth != 0 {
		t.Errorf("expected empty queue, got depth %d", depth)
	}
}

func TestProcessTurn_NoSubjectNoSceneJob(t *testing.T) {
	gen := services.NewMockGenerationService("[MESSAGE]Nothing much happens.[/MESSAGE]")
	p, store, q := newQueuedTestProcessor(t, gen)
	gs := seedSession(t, store)

	if _, err := p.ProcessTurn(context.Background(), gs.ID, "wait", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	depth, err := q.Depth(context.Background())
	if err != nil {
		t.Fatalf("failed to get depth: %v", err)
	}
	if depth != 0 {
		t.Errorf("expected no illustration jobs, got depth %d", depth)
	}
}

func TestProcessTurn_DeletedMidGeneration(t *testing.T) {
	gen := services.NewMockGenerationService()
	p, store := newTestProcessor(gen)
	gs := seedSession(t, store)

	// The session disappears from storage while generation is in flight.
	gen.GenerateFunc = func(ctx context.Context, _ prompts.GenerationPrompt) (string, error) {
		if err := store.DeleteSession(ctx, gs.ID); err != nil {
			t.Fatalf("failed to delete session: %v", err)
		}
		return "[MESSAGE]Too late.[/MESSAGE][COINS]+5[/COINS]", nil
	}

	if _, err := p.ProcessTurn(context.Background(), gs.ID, "stall", 10); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	// The turn result must not resurrect the deleted session.
	stored, err := store.LoadSession(context.Background(), gs.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored != nil {
		t.Errorf("expected session to stay deleted, got %+v", stored)
	}
}

func TestProcessTurn_DeletedMidFailedGeneration(t *testing.T) {
	gen := services.NewMockGenerationService()
	p, store := newTestProcessor(gen)
	gs := seedSession(t, store)

	gen.GenerateFunc = func(ctx context.Context, _ prompts.GenerationPrompt) (string, error) {
		if err := store.DeleteSession(ctx, gs.ID); err != nil {
			t.Fatalf("failed to delete session: %v", err)
		}
		return "", fmt.Errorf("model timeout")
	}

	if _, err := p.ProcessTurn(context.Background(), gs.ID, "stall", 10); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	stored, err := store.LoadSession(context.Background(), gs.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored != nil {
		t.Errorf("expected session to stay deleted, got %+v", stored)
	}
}

func TestProcessTurn_EpochMovedMidGeneration(t *testing.T) {
	gen := services.NewMockGenerationService()
	p, store := newTestProcessor(gen)
	gs := seedSession(t, store)

	// The stored epoch moves while generation is in flight, as a reset
	// would do. The turn result is stale and must be dropped.
	gen.GenerateFunc = func(ctx context.Context, _ prompts.GenerationPrompt) (string, error) {
		reset, err := store.LoadSession(ctx, gs.ID)
		if err != nil || reset == nil {
			t.Fatalf("failed to load session: %v", err)
		}
		reset.Epoch++
		if err := store.SaveSession(ctx, reset.ID, reset); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}
		return "[MESSAGE]Stale news.[/MESSAGE][COINS]+5[/COINS]", nil
	}

	got, err := p.ProcessTurn(context.Background(), gs.ID, "stall", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The caller gets the stored state back, not the stale turn.
	if got.Epoch != 1 {
		t.Errorf("expected stored epoch 1, got %d", got.Epoch)
	}
	if got.Coins != 10 || got.Turns != 0 || len(got.Messages) != 0 {
		t.Errorf("stale turn leaked into session: %+v", got)
	}
}

func TestDeleteSession(t *testing.T) {
	p, store := newTestProcessor(services.NewMockGenerationService())
	gs := seedSession(t, store)

	if err := p.DeleteSession(context.Background(), gs.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, err := store.LoadSession(context.Background(), gs.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored != nil {
		t.Errorf("expected session removed, got %+v", stored)
	}
}

func TestDeleteSession_Busy(t *testing.T) {
	p, store := newTestProcessor(services.NewMockGenerationService())
	gs := seedSession(t, store)

	if !p.acquire(gs.ID) {
		t.Fatal("failed to take session lock")
	}
	defer p.release(gs.ID)

	if err := p.DeleteSession(context.Background(), gs.ID); err != ErrSessionBusy {
		t.Errorf("expected ErrSessionBusy, got %v", err)
	}
}

func TestUndo_EmptyHistory(t *testing.T) {
	p, store := newTestProcessor(services.NewMockGenerationService())
	gs := seedSession(t, store)

	_, undone, err := p.Undo(context.Background(), gs.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if undone {
		t.Error("expected no-op undo on empty history")
	}
}

func TestSpendSkillPoint(t *testing.T) {
	p, store := newTestProcessor(services.NewMockGenerationService())
	gs := seedSession(t, store)
	gs.SkillPoints = 1
	gs.LevelUpPending = true
	if err := store.SaveSession(context.Background(), gs.ID, gs); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	got, err := p.SpendSkillPoint(context.Background(), gs.ID, "strength")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StatValue("strength") != 6 {
		t.Errorf("expected strength 6, got %d", got.StatValue("strength"))
	}
	if got.SkillPoints != 0 || got.LevelUpPending {
		t.Errorf("expected points spent and pending cleared, got %+v", got)
	}

	if _, err := p.SpendSkillPoint(context.Background(), gs.ID, "strength"); err == nil {
		t.Error("expected error with no points left")
	}
}
