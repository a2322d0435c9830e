package directive

import "testing"

func TestAssembleDisplay(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		messages []string
		want     string
	}{
		{
			name:     "joins extracted messages",
			raw:      "[MESSAGE]First.[/MESSAGE][MESSAGE]Second.[/MESSAGE]",
			messages: []string{"First.", "Second."},
			want:     "First.\n\nSecond.",
		},
		{
			name: "untagged response wrapped entirely",
			raw:  "The elevator doors slide open with a groan.",
			want: "The elevator doors slide open with a groan.",
		},
		{
			name: "underscore message dialect recovered",
			raw:  "_MESSAGE]You found the breakroom.[/MESSAGE_",
			want: "You found the breakroom.",
		},
		{
			name: "leading narrative before tags recovered",
			raw:  "You duck behind the desk. [STATS]energy:-1[/STATS]",
			want: "You duck behind the desk.",
		},
		{
			name:     "coins tag stripped from message text",
			raw:      "[MESSAGE]You sell the mug. [COINS]+15[/COINS][/MESSAGE]",
			messages: []string{"You sell the mug. [COINS]+15[/COINS]"},
			want:     "You sell the mug.",
		},
		{
			name: "control tags stripped in fallback",
			raw:  "[STATS]health:-5[/STATS]The vending machine topples onto you.",
			want: "The vending machine topples onto you.",
		},
		{
			name:     "blank runs collapsed",
			raw:      "",
			messages: []string{"One.\n\n\n\nTwo."},
			want:     "One.\n\nTwo.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := AssembleDisplay(tc.raw, tc.messages)
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestAssembleDisplay_RoundTripWithExtract(t *testing.T) {
	raw := "You step into the copy room.[MOVES]look around, leave[/MOVES]"
	d := Extract(raw)
	got := AssembleDisplay(raw, d.Messages)
	if got != "You step into the copy room." {
		t.Errorf("unexpected display text %q", got)
	}
}
