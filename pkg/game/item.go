package game

import "strings"

// ItemType classifies an inventory entry. Weapons and armor never stack;
// items and materials stack by identity.
type ItemType string

const (
	ItemTypeWeapon   ItemType = "weapon"
	ItemTypeArmor    ItemType = "armor"
	ItemTypeItem     ItemType = "item"
	ItemTypeMaterial ItemType = "material"
	ItemTypeCoins    ItemType = "coins"
)

// ParseItemType normalizes a type token from generator output.
// Unrecognized tokens default to the generic item type.
func ParseItemType(s string) ItemType {
	switch ItemType(strings.ToLower(strings.TrimSpace(s))) {
	case ItemTypeWeapon:
		return ItemTypeWeapon
	case ItemTypeArmor:
		return ItemTypeArmor
	case ItemTypeMaterial:
		return ItemTypeMaterial
	case ItemTypeCoins:
		return ItemTypeCoins
	default:
		return ItemTypeItem
	}
}

// Rarity is an item rarity tier.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// ParseRarityLetter maps the single-letter rarity shorthand used in
// ADD_INV tags (C/U/R/E/L, case-insensitive). Unknown letters return
// ok=false and the item is stored without a rarity.
func ParseRarityLetter(s string) (Rarity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c":
		return RarityCommon, true
	case "u":
		return RarityUncommon, true
	case "r":
		return RarityRare, true
	case "e":
		return RarityEpic, true
	case "l":
		return RarityLegendary, true
	default:
		return "", false
	}
}

// StatBonus is a passive stat increase granted while an item is held.
type StatBonus struct {
	Stat  string `json:"stat"`
	Value int    `json:"value"`
}

// Item is a single inventory entry. Value is nil when the generator sent
// a literal "none"; for weapons it is a damage bonus and for armor a
// defense bonus. Quantity below 1 is treated as 1 for stacking.
type Item struct {
	Name      string     `json:"name"`
	Type      ItemType   `json:"type"`
	Value     *int       `json:"value,omitempty"`
	Quantity  int        `json:"quantity,omitempty"`
	Rarity    Rarity     `json:"rarity,omitempty"`
	StatBonus *StatBonus `json:"stat_bonus,omitempty"`
	IconURL   string     `json:"icon_url,omitempty"`
}

// Count returns the stacking quantity, treating an absent quantity as 1.
func (it *Item) Count() int {
	if it.Quantity < 1 {
		return 1
	}
	return it.Quantity
}

// Stackable reports whether this item type participates in stacking.
// Weapons and armor always occupy their own slot.
func (it *Item) Stackable() bool {
	return it.Type != ItemTypeWeapon && it.Type != ItemTypeArmor
}

// SameStack reports whether two items share a stacking identity:
// equal name, type, value and rarity.
func (it *Item) SameStack(other *Item) bool {
	if it.Name != other.Name || it.Type != other.Type || it.Rarity != other.Rarity {
		return false
	}
	if (it.Value == nil) != (other.Value == nil) {
		return false
	}
	return it.Value == nil || *it.Value == *other.Value
}

// IntPtr is a small helper for building optional item values.
func IntPtr(v int) *int {
	return &v
}
