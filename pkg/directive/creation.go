package directive

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/brancaskitchen/office-rpg/pkg/game"
)

// CharacterSheet is the typed result of parsing a character-creation
// response.
type CharacterSheet struct {
	Name      string
	Type      string
	Gender    string
	Look      string
	Backstory string
	Mission   string

	Weapon    *game.Item
	Armor     *game.Item
	Items     []game.Item
	Coins     int
	Suggested []string
}

// IncompleteSheetError reports which required creation fields were absent
// from the response. The caller retries generation rather than starting a
// session with a partial character.
type IncompleteSheetError struct {
	Missing []string
}

func (e *IncompleteSheetError) Error() string {
	return fmt.Sprintf("incomplete character sheet: missing %s", strings.Join(e.Missing, ", "))
}

var (
	nameRe      = regexp.MustCompile(`(?s)\[NAME\](.*?)\[/NAME\]`)
	typeRe      = regexp.MustCompile(`(?s)\[TYPE\](.*?)\[/TYPE\]`)
	genderRe    = regexp.MustCompile(`(?s)\[GENDER\](.*?)\[/GENDER\]`)
	lookRe      = regexp.MustCompile(`(?s)\[LOOK\](.*?)\[/LOOK\]`)
	backstoryRe = regexp.MustCompile(`(?s)\[BACKSTORY\](.*?)\[/BACKSTORY\]`)
	missionRe   = regexp.MustCompile(`(?s)\[MISSION\](.*?)\[/MISSION\]`)
	weaponRe    = regexp.MustCompile(`(?s)\[WEAPON\](.*?)\[/WEAPON\]`)
	armorRe     = regexp.MustCompile(`(?s)\[ARMOR\](.*?)\[/ARMOR\]`)
	itemRe      = regexp.MustCompile(`(?s)\[ITEM\](.*?)\[/ITEM\]`)

	// Starting gear carries its bonus inline, e.g. "Stapler of Doom|4DMG".
	// Some responses skip the pipe and append the bonus after a space.
	bonusRe       = regexp.MustCompile(`^(\d+)\s*(DMG|DEF)$`)
	spacedBonusRe = regexp.MustCompile(`^(.*\S)\s+(\d+\s*(?:DMG|DEF))$`)
)

// ExtractCharacter parses a creation response into a character sheet.
// Name, type, backstory and mission are required; everything else
// defaults sensibly when absent.
func ExtractCharacter(raw string) (*CharacterSheet, error) {
	sheet := &CharacterSheet{
		Name:      firstMatch(nameRe, raw),
		Type:      firstMatch(typeRe, raw),
		Gender:    firstMatch(genderRe, raw),
		Look:      firstMatch(lookRe, raw),
		Backstory: firstMatch(backstoryRe, raw),
		Mission:   firstMatch(missionRe, raw),
	}

	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"NAME", sheet.Name},
		{"TYPE", sheet.Type},
		{"BACKSTORY", sheet.Backstory},
		{"MISSION", sheet.Mission},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, &IncompleteSheetError{Missing: missing}
	}

	if body := firstMatch(weaponRe, raw); body != "" {
		sheet.Weapon = parseGear(body, game.ItemTypeWeapon)
	}
	if body := firstMatch(armorRe, raw); body != "" {
		sheet.Armor = parseGear(body, game.ItemTypeArmor)
	}

	for _, m := range itemRe.FindAllStringSubmatch(raw, -1) {
		item, err := parseItemBody(m[1])
		if err != nil {
			continue
		}
		sheet.Items = append(sheet.Items, item)
	}
	if len(sheet.Items) > 1 {
		sheet.Items = game.Coalesce(sheet.Items)
	}

	if m := coinsRe.FindStringSubmatch(raw); m != nil {
		if coins, err := strconv.Atoi(m[1]); err == nil {
			sheet.Coins = coins
		}
	}

	d := &Directives{}
	parseMoves(d, raw)
	sheet.Suggested = d.Suggestions

	return sheet, nil
}

// parseGear parses a starting weapon or armor body of the form
// "Name|<n>DMG" / "Name|<n>DEF", or the un-piped "Name <n>DMG" variant.
// A missing or unparseable bonus leaves the item with no stat bonus.
func parseGear(body string, itemType game.ItemType) *game.Item {
	fields := fieldSepRe.Split(strings.TrimSpace(body), -1)
	name := strings.TrimSpace(fields[0])

	var bonusField string
	if len(fields) > 1 {
		bonusField = strings.TrimSpace(fields[1])
	} else if m := spacedBonusRe.FindStringSubmatch(name); m != nil {
		name = strings.TrimSpace(m[1])
		bonusField = m[2]
	}
	if name == "" {
		return nil
	}

	item := &game.Item{
		Name:     name,
		Type:     itemType,
		Quantity: 1,
	}
	if m := bonusRe.FindStringSubmatch(bonusField); m != nil {
		bonus, _ := strconv.Atoi(m[1])
		statKey := game.StatDamage
		if m[2] == "DEF" {
			statKey = game.StatDefense
		}
		item.Value = &bonus
		item.StatBonus = &game.StatBonus{Stat: statKey, Value: bonus}
	}
	return item
}

func firstMatch(re *regexp.Regexp, raw string) string {
	if m := re.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
