package game

import "fmt"

const (
	// SkillPointsPerLevel is granted on every level-up.
	SkillPointsPerLevel = 3

	// ExpKey is the synthetic stat key carrying experience deltas.
	// It is merged into the stat-change map by the extractor.
	ExpKey = "exp"

	// expThresholdNum/Den scale the experience threshold by 1.5 per level.
	expThresholdNum = 3
	expThresholdDen = 2
)

// ApplyStatChanges applies a key→delta map to the stat list.
//
// The level stat consumes the synthetic "exp" delta. When accumulated
// experience meets the threshold the character levels up: the value rises
// by one, experience resets to 0, the threshold scales by 1.5 and skill
// points are granted. The check is single-step: overflow experience is
// discarded with the reset, so one delta can never cross two thresholds.
//
// Every other stat with a matching key is clamped to [0, max] and keeps
// the raw delta in Change for one turn of UI decoration; stats without a
// matching key have Change cleared.
func (gs *GameState) ApplyStatChanges(changes map[string]int) {
	for i := range gs.Stats {
		stat := &gs.Stats[i]

		if stat.IsLevel() {
			if exp, ok := changes[ExpKey]; ok && exp != 0 {
				gs.applyExperience(stat, exp)
			}
			continue
		}

		delta, ok := changes[stat.Key]
		if !ok {
			stat.Change = nil
			continue
		}

		next := stat.Value + delta
		if next < 0 {
			next = 0
		}
		if max := stat.ClampMax(); next > max {
			next = max
		}
		stat.Value = next
		d := delta
		stat.Change = &d
	}
}

func (gs *GameState) applyExperience(level *Stat, exp int) {
	maxExp := level.MaxExp
	if maxExp == 0 {
		maxExp = 100
	}

	newExp := level.Exp + exp
	if newExp < maxExp {
		level.Exp = newExp
		return
	}

	level.Value++
	level.Exp = 0
	level.MaxExp = maxExp * expThresholdNum / expThresholdDen
	gs.SkillPoints += SkillPointsPerLevel
	gs.LevelUpPending = true
}

// ApplyEnemyDamage decrements the active enemy's HP, floored at 0.
// No-op when no enemy is tracked.
func (gs *GameState) ApplyEnemyDamage(damage int) {
	if gs.Enemy == nil {
		return
	}
	gs.Enemy.HP -= damage
	if gs.Enemy.HP < 0 {
		gs.Enemy.HP = 0
	}
}

// ApplyCoins adjusts the coin balance. Negative balances are permitted:
// a deduction larger than the balance leaves the character in debt.
func (gs *GameState) ApplyCoins(delta int) {
	gs.Coins += delta
}

// DistributeSkillPoint spends one skill point to permanently raise the
// named stat by one.
func (gs *GameState) DistributeSkillPoint(statKey string) error {
	if gs.SkillPoints <= 0 {
		return fmt.Errorf("no skill points available")
	}
	stat := gs.Stat(statKey)
	if stat == nil {
		return fmt.Errorf("unknown stat: %s", statKey)
	}
	if stat.IsLevel() {
		return fmt.Errorf("cannot distribute points to the level stat")
	}

	stat.Value++
	gs.SkillPoints--
	if gs.SkillPoints == 0 {
		gs.LevelUpPending = false
	}
	return nil
}
