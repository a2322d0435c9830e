package game

import "time"

// Message is one entry in the session transcript: either the user's echoed
// input or an assembled generator reply. System messages carry local error
// or status text that never round-trips through the generator.
type Message struct {
	Content     string    `json:"content"`
	IsUser      bool      `json:"is_user"`
	IsSystem    bool      `json:"is_system,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}
