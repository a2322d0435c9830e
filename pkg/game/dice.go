package game

import (
	"fmt"

	"github.com/KirkDiggler/rpg-toolkit/dice"
)

// DiceSides is the die used for turn outcomes.
const DiceSides = 20

// RollD20 rolls a single d20 for a turn.
func RollD20() (int, error) {
	roll, err := dice.NewRoll(1, DiceSides)
	if err != nil {
		return 0, fmt.Errorf("failed to roll d20: %w", err)
	}
	return roll.GetValue(), nil
}

// ValidRoll reports whether a submitted dice value is a possible d20 result.
func ValidRoll(n int) bool {
	return n >= 1 && n <= DiceSides
}

// OutcomeInstruction maps a d20 roll to the narrative steer sent to the
// generator. Bands follow the classic worst/bad/mixed/good/best split.
func OutcomeInstruction(roll int) string {
	switch {
	case roll <= 5:
		return "You must respond with the worst possible outcome to the prompt."
	case roll <= 10:
		return "You must respond with a bad outcome to the prompt."
	case roll <= 15:
		return "You must respond with a mixed outcome to the prompt."
	case roll <= 19:
		return "You must respond with a good outcome to the prompt."
	default:
		return "You must respond with the best possible outcome to the prompt."
	}
}
