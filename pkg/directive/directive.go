// Package directive extracts typed game-state mutations from the
// loosely-structured tagged text returned by the generator.
//
// Extraction is total: missing tags are simply absent from the result,
// and malformed sub-items are dropped individually (recorded in Errors)
// without aborting the rest of the scan.
package directive

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/brancaskitchen/office-rpg/pkg/game"
)

// ParseError records a recognized tag whose body (or one of its fields)
// could not be parsed. The aggregate logs and drops these; they never
// propagate as Go errors.
type ParseError struct {
	Tag    string
	Body   string
	Reason string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s directive %q: %s", e.Tag, e.Body, e.Reason)
}

// Directives is the typed result of scanning one generator response.
type Directives struct {
	StatChanges map[string]int // includes the synthetic "exp" key
	EnemyDamage *int
	RemoveItems []string
	AddItems    []game.Item // locally coalesced
	Coins       *int
	Suggestions []string
	Animation   string
	Subject     string
	Messages    []string

	Errors []ParseError
}

var (
	statsRe     = regexp.MustCompile(`(?s)\[STATS\](.*?)\[/STATS\]`)
	damageRe    = regexp.MustCompile(`(?s)\[DAMAGE\](.*?)\[/DAMAGE\]`)
	expRe       = regexp.MustCompile(`(?s)\[EXP\](\d+)\[/EXP\]`)
	removeRe    = regexp.MustCompile(`(?s)\[REMOVE_INV\](.*?)\[/REMOVE_INV\]`)
	addRe       = regexp.MustCompile(`(?s)\[ADD_INV\](.*?)\[/ADD_INV\]`)
	coinsRe     = regexp.MustCompile(`\[COINS\]([+-]?\d+)\[/COINS\]`)
	animationRe = regexp.MustCompile(`\[ANIMATION\](.*?)\[/ANIMATION\]`)
	subjectRe   = regexp.MustCompile(`(?s)\[SUBJECT\](.*?)\[/SUBJECT\]`)
	messageRe   = regexp.MustCompile(`(?s)\[MESSAGE\](.*?)\[/MESSAGE\]`)

	pairSepRe  = regexp.MustCompile(`:\s*|\s+`)
	listSepRe  = regexp.MustCompile(`\s*,\s*`)
	fieldSepRe = regexp.MustCompile(`\s*\|\s*`)
	numericRe  = regexp.MustCompile(`^\d+$`)
	qtySuffix  = regexp.MustCompile(`^(.*\S)\s*x(\d+)$`)
)

// movesPatterns is the ordered dialect table for suggestions. Only the
// first matching pattern is honored per response. The case-insensitive
// bracket form covers the legacy MV/MVES and Title-case spellings; the
// second entry covers the malformed underscore dialect (_MOVES]...[/MOVES_).
var movesPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?si)\[(MOVES|MV|MVES)\](.*?)\[/(?:MOVES|MV|MVES)\]`),
	regexp.MustCompile(`(?si)_(MOVES|MV|MVES)\](.*?)\[/(?:MOVES|MV|MVES)_`),
}

// handlers is the ordered scan table. Each handler is pure over the raw
// text and only appends to the result; none of them can fail the scan.
var handlers = []struct {
	name string
	fn   func(d *Directives, raw string)
}{
	{"stats", parseStats},
	{"damage", parseDamage},
	{"exp", parseExp},
	{"remove_inv", parseRemoveInv},
	{"add_inv", parseAddInv},
	{"coins", parseCoins},
	{"moves", parseMoves},
	{"animation", parseAnimation},
	{"subject", parseSubject},
	{"message", parseMessages},
}

// Extract scans a raw generator response for every recognized tag family.
func Extract(raw string) *Directives {
	d := &Directives{
		StatChanges: make(map[string]int),
	}
	for _, h := range handlers {
		h.fn(d, raw)
	}
	return d
}

func parseStats(d *Directives, raw string) {
	m := statsRe.FindStringSubmatch(raw)
	if m == nil {
		return
	}

	for _, pair := range listSepRe.Split(strings.TrimSpace(m[1]), -1) {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		// Split fully and read the first two fields, so trailing chatter
		// like "luck: +3 bonus" still yields the numeric delta.
		parts := pairSepRe.Split(pair, -1)
		if len(parts) < 2 {
			d.Errors = append(d.Errors, ParseError{Tag: "STATS", Body: pair, Reason: "missing delta"})
			continue
		}

		key := strings.ToLower(strings.TrimSpace(parts[0]))
		delta, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			d.Errors = append(d.Errors, ParseError{Tag: "STATS", Body: pair, Reason: "non-numeric delta"})
			continue
		}
		d.StatChanges[key] = delta
	}
}

func parseDamage(d *Directives, raw string) {
	m := damageRe.FindStringSubmatch(raw)
	if m == nil {
		return
	}
	dmg, err := strconv.Atoi(strings.TrimSpace(m[1]))
	if err != nil {
		d.Errors = append(d.Errors, ParseError{Tag: "DAMAGE", Body: m[1], Reason: "non-numeric damage"})
		return
	}
	d.EnemyDamage = &dmg
}

func parseExp(d *Directives, raw string) {
	m := expRe.FindStringSubmatch(raw)
	if m == nil {
		return
	}
	exp, err := strconv.Atoi(m[1])
	if err != nil {
		// \d+ guarantees digits; only overflow lands here
		d.Errors = append(d.Errors, ParseError{Tag: "EXP", Body: m[1], Reason: "unparseable experience"})
		return
	}
	d.StatChanges[game.ExpKey] = exp
}

func parseRemoveInv(d *Directives, raw string) {
	for _, m := range removeRe.FindAllStringSubmatch(raw, -1) {
		// Only the item name matters; extra |-delimited segments are ignored.
		name := strings.TrimSpace(strings.SplitN(m[1], "|", 2)[0])
		if name == "" {
			continue
		}
		d.RemoveItems = append(d.RemoveItems, name)
	}
}

func parseAddInv(d *Directives, raw string) {
	items := make([]game.Item, 0)
	for _, m := range addRe.FindAllStringSubmatch(raw, -1) {
		item, err := parseItemBody(m[1])
		if err != nil {
			d.Errors = append(d.Errors, ParseError{Tag: "ADD_INV", Body: strings.TrimSpace(m[1]), Reason: err.Error()})
			continue
		}
		items = append(items, item)
	}
	if len(items) > 0 {
		d.AddItems = game.Coalesce(items)
	}
}

// parseItemBody parses one ADD_INV body of up to five pipe-delimited
// fields: name, type-or-quantity, value, quantity, rarity letter. A bare
// "Name x3" form is accepted in place of pipes. If the second field is
// purely numeric it is the quantity and the type defaults to item.
func parseItemBody(body string) (game.Item, error) {
	body = strings.TrimSpace(body)
	fields := fieldSepRe.Split(body, -1)

	if len(fields) == 1 {
		if m := qtySuffix.FindStringSubmatch(fields[0]); m != nil {
			fields = []string{m[1], m[2]}
		}
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	if fields[0] == "" {
		return game.Item{}, fmt.Errorf("empty item name")
	}

	item := game.Item{
		Name:     fields[0],
		Type:     game.ItemTypeItem,
		Quantity: 1,
	}

	if len(fields) > 1 && fields[1] != "" {
		if numericRe.MatchString(fields[1]) {
			qty, _ := strconv.Atoi(fields[1])
			item.Quantity = qty
		} else {
			item.Type = game.ParseItemType(fields[1])
		}
	}

	if len(fields) > 2 && fields[2] != "" {
		if strings.EqualFold(fields[2], "none") {
			item.Value = nil
		} else {
			v, err := strconv.Atoi(fields[2])
			if err != nil {
				return game.Item{}, fmt.Errorf("non-numeric value %q", fields[2])
			}
			item.Value = &v
		}
	} else if len(fields) > 2 {
		item.Value = game.IntPtr(0)
	}

	if len(fields) > 3 && fields[3] != "" {
		qty, err := strconv.Atoi(fields[3])
		if err == nil && qty > 0 {
			item.Quantity = qty
		}
		// Unparseable quantity keeps the default of 1.
	}

	if len(fields) > 4 && fields[4] != "" {
		if r, ok := game.ParseRarityLetter(fields[4]); ok {
			item.Rarity = r
		}
	}

	return item, nil
}

func parseCoins(d *Directives, raw string) {
	m := coinsRe.FindStringSubmatch(raw)
	if m == nil {
		return
	}
	delta, err := strconv.Atoi(m[1])
	if err != nil {
		d.Errors = append(d.Errors, ParseError{Tag: "COINS", Body: m[1], Reason: "unparseable amount"})
		return
	}
	d.Coins = &delta
}

func parseMoves(d *Directives, raw string) {
	for _, pattern := range movesPatterns {
		m := pattern.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		for _, move := range strings.Split(m[2], ",") {
			move = strings.TrimSpace(move)
			if move != "" {
				d.Suggestions = append(d.Suggestions, move)
			}
		}
		return
	}
}

func parseAnimation(d *Directives, raw string) {
	if m := animationRe.FindStringSubmatch(raw); m != nil {
		d.Animation = strings.TrimSpace(m[1])
	}
}

func parseSubject(d *Directives, raw string) {
	if m := subjectRe.FindStringSubmatch(raw); m != nil {
		d.Subject = strings.TrimSpace(m[1])
	}
}

func parseMessages(d *Directives, raw string) {
	for _, m := range messageRe.FindAllStringSubmatch(raw, -1) {
		d.Messages = append(d.Messages, strings.TrimSpace(m[1]))
	}
}
