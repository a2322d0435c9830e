package game

import "testing"

func testStats() []Stat {
	return []Stat{
		{Key: StatLevel, Name: "Level", Value: 1, MaxValue: 2, Exp: 0, MaxExp: 100},
		{Key: StatHealth, Name: "Health", Value: 50, MaxValue: 80},
		{Key: StatEnergy, Name: "Energy", Value: 20, MaxValue: 25},
		{Key: "strength", Name: "Strength", Value: 7},
	}
}

func TestApplyStatChanges_Clamping(t *testing.T) {
	tests := []struct {
		name    string
		changes map[string]int
		key     string
		want    int
	}{
		{
			name:    "large negative clamps to zero",
			changes: map[string]int{StatHealth: -70},
			key:     StatHealth,
			want:    0,
		},
		{
			name:    "large positive clamps to max",
			changes: map[string]int{StatHealth: 999},
			key:     StatHealth,
			want:    80,
		},
		{
			name:    "within range applies exactly",
			changes: map[string]int{StatEnergy: -5},
			key:     StatEnergy,
			want:    15,
		},
		{
			name:    "no explicit max clamps to default",
			changes: map[string]int{"strength": 200},
			key:     "strength",
			want:    DefaultStatMax,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gs := NewGameState()
			gs.Stats = testStats()
			gs.ApplyStatChanges(tc.changes)

			got := gs.Stat(tc.key)
			if got == nil {
				t.Fatalf("stat %q missing after apply", tc.key)
			}
			if got.Value != tc.want {
				t.Errorf("expected %s=%d, got %d", tc.key, tc.want, got.Value)
			}
			if got.Change == nil {
				t.Errorf("expected Change recorded for %s", tc.key)
			}
		})
	}
}

func TestApplyStatChanges_ClearsStaleChange(t *testing.T) {
	gs := NewGameState()
	gs.Stats = testStats()
	gs.ApplyStatChanges(map[string]int{StatHealth: -10})

	if gs.Stat(StatHealth).Change == nil {
		t.Fatal("expected Change set on first apply")
	}

	gs.ApplyStatChanges(map[string]int{StatEnergy: 2})
	if gs.Stat(StatHealth).Change != nil {
		t.Error("expected health Change cleared when untouched")
	}
	if gs.Stat(StatEnergy).Change == nil {
		t.Error("expected energy Change set")
	}
}

func TestApplyStatChanges_LevelUp(t *testing.T) {
	gs := NewGameState()
	gs.Stats = testStats()
	level := gs.Level()
	level.Exp = 90

	gs.ApplyStatChanges(map[string]int{ExpKey: 20})

	level = gs.Level()
	if level.Value != 2 {
		t.Errorf("expected level 2, got %d", level.Value)
	}
	if level.Exp != 0 {
		t.Errorf("expected exp reset to 0, got %d", level.Exp)
	}
	if level.MaxExp != 150 {
		t.Errorf("expected max exp 150, got %d", level.MaxExp)
	}
	if gs.SkillPoints != SkillPointsPerLevel {
		t.Errorf("expected %d skill points, got %d", SkillPointsPerLevel, gs.SkillPoints)
	}
	if !gs.LevelUpPending {
		t.Error("expected level-up pending flag")
	}
}

func TestApplyStatChanges_ExpBelowThreshold(t *testing.T) {
	gs := NewGameState()
	gs.Stats = testStats()

	gs.ApplyStatChanges(map[string]int{ExpKey: 40})

	level := gs.Level()
	if level.Value != 1 {
		t.Errorf("expected level unchanged, got %d", level.Value)
	}
	if level.Exp != 40 {
		t.Errorf("expected exp 40, got %d", level.Exp)
	}
	if gs.SkillPoints != 0 {
		t.Errorf("expected no skill points, got %d", gs.SkillPoints)
	}
}

func TestApplyEnemyDamage(t *testing.T) {
	gs := NewGameState()
	gs.ApplyEnemyDamage(10) // no enemy tracked

	gs.Enemy = &Enemy{Type: "Passive-Aggressive Manager", HP: 12}
	gs.ApplyEnemyDamage(5)
	if gs.Enemy.HP != 7 {
		t.Errorf("expected HP 7, got %d", gs.Enemy.HP)
	}

	gs.ApplyEnemyDamage(100)
	if gs.Enemy.HP != 0 {
		t.Errorf("expected HP floored at 0, got %d", gs.Enemy.HP)
	}
}

func TestApplyCoins_AllowsDebt(t *testing.T) {
	gs := NewGameState()
	gs.Coins = 30
	gs.ApplyCoins(-50)
	if gs.Coins != -20 {
		t.Errorf("expected coins -20, got %d", gs.Coins)
	}
	gs.ApplyCoins(25)
	if gs.Coins != 5 {
		t.Errorf("expected coins 5, got %d", gs.Coins)
	}
}

func TestDistributeSkillPoint(t *testing.T) {
	gs := NewGameState()
	gs.Stats = testStats()
	gs.SkillPoints = 2
	gs.LevelUpPending = true

	if err := gs.DistributeSkillPoint("strength"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := gs.StatValue("strength"); got != 8 {
		t.Errorf("expected strength 8, got %d", got)
	}
	if gs.SkillPoints != 1 {
		t.Errorf("expected 1 skill point left, got %d", gs.SkillPoints)
	}
	if !gs.LevelUpPending {
		t.Error("expected level-up still pending with points remaining")
	}

	if err := gs.DistributeSkillPoint(StatLevel); err == nil {
		t.Error("expected error distributing to level stat")
	}
	if err := gs.DistributeSkillPoint("nonsense"); err == nil {
		t.Error("expected error for unknown stat")
	}

	if err := gs.DistributeSkillPoint(StatHealth); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gs.SkillPoints != 0 {
		t.Errorf("expected 0 skill points, got %d", gs.SkillPoints)
	}
	if gs.LevelUpPending {
		t.Error("expected level-up cleared at zero points")
	}

	if err := gs.DistributeSkillPoint("strength"); err == nil {
		t.Error("expected error with no points available")
	}
}
