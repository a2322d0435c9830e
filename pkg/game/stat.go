package game

import (
	"math/rand"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Reserved stat keys. Level always sits at position 0 of the stat list,
// followed by the four vitals; character attributes come after.
const (
	StatLevel   = "level"
	StatHealth  = "health"
	StatEnergy  = "energy"
	StatDamage  = "damage"
	StatDefense = "defense"
)

// DefaultStatMax is the clamp ceiling for stats that carry no explicit maximum.
const DefaultStatMax = 100

// Stat is a single tracked character statistic.
//
// The "level" stat is special: it carries the experience sub-fields and is
// advanced by the reducer when experience crosses MaxExp. All other stats
// are plain numeric trackers clamped to [0, max].
type Stat struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Value    int    `json:"value"`
	MaxValue int    `json:"max_value,omitempty"` // 0 means no explicit max; clamping uses DefaultStatMax
	Change   *int   `json:"change,omitempty"`    // delta applied on the last turn, cleared otherwise
	Exp      int    `json:"exp,omitempty"`       // level stat only
	MaxExp   int    `json:"max_exp,omitempty"`   // level stat only
}

// ClampMax returns the effective ceiling used when applying deltas.
func (s *Stat) ClampMax() int {
	if s.MaxValue > 0 {
		return s.MaxValue
	}
	return DefaultStatMax
}

// IsLevel reports whether this is the level stat.
func (s *Stat) IsLevel() bool {
	return s.Key == StatLevel
}

var titleCaser = cases.Title(language.English)

// DisplayName derives a display name from a stat key ("strength" -> "Strength").
func DisplayName(key string) string {
	return titleCaser.String(key)
}

// attributeKeys are the freely-ordered character attributes, rolled at
// character creation. Order here fixes their order in the stat list.
var attributeKeys = []string{"strength", "dexterity", "endurance", "agility", "wisdom", "charisma"}

// distributePoints spreads totalPoints across numStats slots, at most
// maxPerStat each, with a randomized remainder and shuffled result.
func distributePoints(totalPoints, numStats, maxPerStat int) []int {
	stats := make([]int, numStats)
	minPoints := totalPoints / (numStats * 2)
	for i := range stats {
		stats[i] = minPoints
	}

	remaining := totalPoints - minPoints*numStats
	for remaining > 0 {
		i := rand.Intn(numStats)
		if stats[i] < maxPerStat {
			stats[i]++
			remaining--
		}
	}

	rand.Shuffle(len(stats), func(i, j int) {
		stats[i], stats[j] = stats[j], stats[i]
	})
	return stats
}

// NewCharacterStats rolls a fresh stat list for character creation:
// level at position 0, the four vitals derived from the rolled attributes,
// then the attributes themselves.
func NewCharacterStats() []Stat {
	rolled := distributePoints(25, len(attributeKeys), 10)

	baseHealth := 50 + rolled[1]*5
	baseEnergy := 20 + rolled[3]/2
	baseDamage := 5 + rolled[0]
	baseDefense := 5 + rolled[1]

	stats := []Stat{
		{Key: StatLevel, Name: "Level", Value: 1, MaxValue: 2, Exp: 0, MaxExp: 100},
		{Key: StatHealth, Name: "Health", Value: baseHealth, MaxValue: baseHealth},
		{Key: StatEnergy, Name: "Energy", Value: baseEnergy, MaxValue: baseEnergy},
		{Key: StatDamage, Name: "DMG", Value: baseDamage, MaxValue: baseDamage},
		{Key: StatDefense, Name: "DEF", Value: baseDefense, MaxValue: baseDefense},
	}
	for i, key := range attributeKeys {
		stats = append(stats, Stat{Key: key, Name: DisplayName(key), Value: rolled[i]})
	}
	return stats
}
