package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/brancaskitchen/office-rpg/pkg/game"
)

// maxMessageLength bounds player input so a pasted novel cannot blow out
// the generation prompt.
const maxMessageLength = 1000

// TurnRequest defines the body for playing a turn. Every turn carries a
// d20 roll; the client rolls before sending.
type TurnRequest struct {
	Message  string `json:"message"`
	DiceRoll int    `json:"dice_roll"`
}

func (h *SessionHandler) handleTurn(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, h.logger, http.StatusBadRequest, "message field is required")
		return
	}
	if len(req.Message) > maxMessageLength {
		writeError(w, h.logger, http.StatusBadRequest,
			fmt.Sprintf("message exceeds %d characters", maxMessageLength))
		return
	}
	if !game.ValidRoll(req.DiceRoll) {
		writeError(w, h.logger, http.StatusBadRequest,
			fmt.Sprintf("dice_roll must be between 1 and %d", game.DiceSides))
		return
	}

	gs, err := h.processor.ProcessTurn(r.Context(), id, req.Message, req.DiceRoll)
	if err != nil {
		h.writeProcessorError(w, err, id)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, gs)
}
