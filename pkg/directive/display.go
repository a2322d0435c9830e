package directive

import (
	"regexp"
	"strings"
)

var (
	// The generator sometimes emits an underscore dialect for the message
	// and moves tags. Normalize those before retrying extraction.
	underscoreFixer = strings.NewReplacer(
		"_MESSAGE]", "[MESSAGE]",
		"[/MESSAGE_", "[/MESSAGE]",
		"_MOVES]", "[MOVES]",
		"[/MOVES_", "[/MOVES]",
	)

	leadingUntaggedRe = regexp.MustCompile(`^[^\[]+`)
	coinsStripRe      = regexp.MustCompile(`\[COINS\][+-]?\d+\[/COINS\]`)
	blankRunRe        = regexp.MustCompile(`\n[ \t]*\n+`)

	// Every tag family the display text must never show.
	controlTagRe = regexp.MustCompile(`(?s)\[(STATS|DAMAGE|EXP|ADD_INV|REMOVE_INV|COINS|MOVES|MV|MVES|ANIMATION|SUBJECT)\].*?\[/(?:STATS|DAMAGE|EXP|ADD_INV|REMOVE_INV|COINS|MOVES|MV|MVES|ANIMATION|SUBJECT)\]`)
)

// AssembleDisplay builds the text shown to the player from one response.
// When the response carried no MESSAGE tags, the raw text is normalized
// (underscore dialect fixed, an untagged leading run wrapped as a message)
// and re-scanned; if that still finds nothing, the control tags are
// stripped and whatever narrative remains is shown as-is.
func AssembleDisplay(raw string, messages []string) string {
	if len(messages) == 0 {
		messages = recoverMessages(raw)
	}

	var text string
	if len(messages) > 0 {
		text = strings.Join(messages, "\n\n")
	} else {
		text = controlTagRe.ReplaceAllString(raw, "")
	}

	text = coinsStripRe.ReplaceAllString(text, "")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func recoverMessages(raw string) []string {
	normalized := underscoreFixer.Replace(raw)
	normalized = leadingUntaggedRe.ReplaceAllString(normalized, "[MESSAGE]${0}[/MESSAGE]")

	var messages []string
	for _, m := range messageRe.FindAllStringSubmatch(normalized, -1) {
		if msg := strings.TrimSpace(m[1]); msg != "" {
			messages = append(messages, msg)
		}
	}
	return messages
}
