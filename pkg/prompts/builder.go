package prompts

import (
	"fmt"
	"strings"

	"github.com/brancaskitchen/office-rpg/pkg/game"
)

// Builder constructs the turn prompt template using a fluent interface.
// It separates prompt assembly from game state management.
type Builder struct {
	gs           *game.GameState
	userMessage  string
	diceRoll     int
	contextLimit int
}

// New creates a new prompt builder with default settings.
func New() *Builder {
	return &Builder{
		contextLimit: 3, // default context window
	}
}

// WithGameState sets the session state the prompt describes.
func (b *Builder) WithGameState(gs *game.GameState) *Builder {
	b.gs = gs
	return b
}

// WithUserMessage sets the player's input for this turn.
func (b *Builder) WithUserMessage(message string) *Builder {
	b.userMessage = message
	return b
}

// WithDiceRoll sets the d20 result steering the outcome. Zero means no
// roll was made this turn.
func (b *Builder) WithDiceRoll(roll int) *Builder {
	b.diceRoll = roll
	return b
}

// WithContextLimit sets how many recent messages are included as context.
func (b *Builder) WithContextLimit(limit int) *Builder {
	b.contextLimit = limit
	return b
}

// Build assembles the complete turn template.
func (b *Builder) Build() (GenerationPrompt, error) {
	if b.gs == nil {
		return GenerationPrompt{}, fmt.Errorf("gamestate is required")
	}
	if b.userMessage == "" {
		return GenerationPrompt{}, fmt.Errorf("user message is required")
	}

	var sb strings.Builder
	sb.WriteString(systemOpen)
	sb.WriteString(BaseSystemPrompt)
	sb.WriteString("\n\n")
	sb.WriteString(b.animationsSection())
	sb.WriteString("\n\n")
	sb.WriteString(SubjectPrompt)
	sb.WriteString("\n\n")
	sb.WriteString(b.statusSection())
	sb.WriteString("\n\n")
	sb.WriteString(TagReferencePrompt)
	sb.WriteString("\n\n")
	sb.WriteString(RulesPrompt)
	sb.WriteString("\n\n")
	if dice := b.diceSection(); dice != "" {
		sb.WriteString(dice)
		sb.WriteString("\n\n")
	}
	sb.WriteString(b.stateSection())
	sb.WriteString("\n\n")
	sb.WriteString(b.contextSection())
	sb.WriteString("\n\n")
	sb.WriteString(ClosingPrompt)
	sb.WriteString("\n\n")
	sb.WriteString(userTurn)
	sb.WriteString(b.userMessage)
	sb.WriteString(assistantTurn)

	return GenerationPrompt{
		Prompt:    b.userMessage,
		Template:  sb.String(),
		MaxTokens: TurnMaxTokens,
	}, nil
}

func (b *Builder) animationsSection() string {
	if len(b.gs.Animations) == 0 {
		return missingAnimationsPrompt
	}
	return "Select an animation from the following list that best matches the action or situation:\n" +
		strings.Join(b.gs.Animations, ", ")
}

// statusSection renders the character sheet: identity, vitals with weapon
// and armor contributions, then attributes with item bonuses.
func (b *Builder) statusSection() string {
	gs := b.gs
	name, charType := "Unknown", "Unknown"
	if gs.Character != nil {
		name = gs.Character.Name
		charType = gs.Character.Type
	}

	level := gs.Level()
	if level == nil {
		level = &game.Stat{Value: 1, MaxExp: 100}
	}

	weaponDamage, armorDefense := 0, 0
	if w := gs.Inventory.FirstOfType(game.ItemTypeWeapon); w != nil && w.Value != nil {
		weaponDamage = *w.Value
	}
	if a := gs.Inventory.FirstOfType(game.ItemTypeArmor); a != nil && a.Value != nil {
		armorDefense = *a.Value
	}
	baseDamage := gs.StatValue(game.StatDamage)
	baseDefense := gs.StatValue(game.StatDefense)

	var sb strings.Builder
	sb.WriteString("Character Status:\n")
	sb.WriteString(name + "\n")
	fmt.Fprintf(&sb, "Level %d %s\n", level.Value, charType)
	fmt.Fprintf(&sb, "EXP: %d/%d\n", level.Exp, level.MaxExp)
	fmt.Fprintf(&sb, "Health: %d/%d\n", gs.StatValue(game.StatHealth), statMax(gs, game.StatHealth))
	fmt.Fprintf(&sb, "Energy: %d/%d\n", gs.StatValue(game.StatEnergy), statMax(gs, game.StatEnergy))
	fmt.Fprintf(&sb, "DMG: %d (Base: %d + Weapon: %d)\n", baseDamage+weaponDamage, baseDamage, weaponDamage)
	fmt.Fprintf(&sb, "DEF: %d (Base: %d + Armor: %d)\n", baseDefense+armorDefense, baseDefense, armorDefense)

	sb.WriteString("\nCore Stats:\n")
	for _, stat := range gs.Stats {
		switch stat.Key {
		case game.StatLevel, game.StatHealth, game.StatEnergy, game.StatDamage, game.StatDefense:
			continue
		}
		fmt.Fprintf(&sb, "- %s: %d", stat.Name, stat.Value)
		if bonus := gs.Inventory.BonusFor(stat.Key); bonus > 0 {
			fmt.Fprintf(&sb, " (+%d from items)", bonus)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Builder) diceSection() string {
	if b.diceRoll == 0 {
		return ""
	}
	return fmt.Sprintf("[DICE]User rolled %d on d20 dice. %s[/DICE]",
		b.diceRoll, game.OutcomeInstruction(b.diceRoll))
}

func (b *Builder) stateSection() string {
	gs := b.gs
	enemy := "None"
	if gs.Enemy != nil {
		enemy = gs.Enemy.Type
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Game State: %s\n", gs.Mode)
	fmt.Fprintf(&sb, "Current Enemy: %s\n\n", enemy)

	sb.WriteString("Inventory:\n")
	for _, item := range gs.Inventory {
		sb.WriteString("- " + item.Name)
		switch {
		case item.Type == game.ItemTypeWeapon && item.Value != nil:
			fmt.Fprintf(&sb, " (+%d DMG)", *item.Value)
		case item.Type == game.ItemTypeArmor && item.Value != nil:
			fmt.Fprintf(&sb, " (+%d DEF)", *item.Value)
		case item.Quantity > 1:
			fmt.Fprintf(&sb, " x%d", item.Quantity)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Coins: %dC", gs.Coins)
	return sb.String()
}

func (b *Builder) contextSection() string {
	return "Previous context: " + strings.Join(b.gs.RecentContext(b.contextLimit), " | ")
}

func statMax(gs *game.GameState, key string) int {
	if s := gs.Stat(key); s != nil {
		return s.ClampMax()
	}
	return 0
}

// BuildTurnPrompt is a convenience function for the common case.
func BuildTurnPrompt(gs *game.GameState, message string, diceRoll int) (GenerationPrompt, error) {
	return New().
		WithGameState(gs).
		WithUserMessage(message).
		WithDiceRoll(diceRoll).
		Build()
}
