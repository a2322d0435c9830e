package game

import "strings"

// Inventory is the ordered list of items a character carries.
type Inventory []Item

// Remove filters out every item whose lowercased name contains one of the
// lowercased targets as a substring. The breadth is intentional: a removal
// request for "Shield" takes out both "Wooden Shield" and "Shield
// Generator". Callers accept the over-deletion risk.
func (inv Inventory) Remove(targets []string) Inventory {
	if len(targets) == 0 {
		return inv
	}

	lowered := make([]string, 0, len(targets))
	for _, t := range targets {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			lowered = append(lowered, t)
		}
	}

	kept := make(Inventory, 0, len(inv))
	for _, item := range inv {
		name := strings.ToLower(item.Name)
		matched := false
		for _, t := range lowered {
			if strings.Contains(name, t) {
				matched = true
				break
			}
		}
		if !matched {
			kept = append(kept, item)
		}
	}
	return kept
}

// Add merges new items into the inventory. Weapons and armor are always
// appended as distinct slots; other types stack onto an existing entry
// with the same identity, summing quantities.
func (inv Inventory) Add(items []Item) Inventory {
	merged := inv
	for _, item := range items {
		if !item.Stackable() {
			merged = append(merged, item)
			continue
		}

		stacked := false
		for i := range merged {
			if merged[i].Stackable() && merged[i].SameStack(&item) {
				merged[i].Quantity = merged[i].Count() + item.Count()
				stacked = true
				break
			}
		}
		if !stacked {
			merged = append(merged, item)
		}
	}
	return merged
}

// Coalesce collapses a batch of additions before they reach the
// persistent inventory: entries with the same stacking identity sum
// their quantities. Weapons and armor pass through untouched.
func Coalesce(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if !item.Stackable() {
			out = append(out, item)
			continue
		}

		stacked := false
		for i := range out {
			if out[i].Stackable() && out[i].SameStack(&item) {
				out[i].Quantity = out[i].Count() + item.Count()
				stacked = true
				break
			}
		}
		if !stacked {
			out = append(out, item)
		}
	}
	return out
}

// FirstOfType returns the first item of the given type, or nil.
// The UI treats the first weapon and first armor as equipped.
func (inv Inventory) FirstOfType(t ItemType) *Item {
	for i := range inv {
		if inv[i].Type == t {
			return &inv[i]
		}
	}
	return nil
}

// BonusFor sums passive stat bonuses held in the inventory for one stat key.
func (inv Inventory) BonusFor(statKey string) int {
	total := 0
	for i := range inv {
		if b := inv[i].StatBonus; b != nil && strings.EqualFold(b.Stat, statKey) {
			total += b.Value
		}
	}
	return total
}
