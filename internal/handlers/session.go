package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/brancaskitchen/office-rpg/internal/storage"
	"github.com/brancaskitchen/office-rpg/internal/worker"
	"github.com/brancaskitchen/office-rpg/pkg/directive"
)

// SessionHandler serves the session endpoints.
// Routes:
// POST /v1/sessions               - Create a session from path words
// GET /v1/sessions/{id}           - Read a session
// DELETE /v1/sessions/{id}        - Delete a session
// POST /v1/sessions/{id}/turns    - Play a turn
// POST /v1/sessions/{id}/undo     - Undo the last turn
// POST /v1/sessions/{id}/skills   - Spend a pending skill point
type SessionHandler struct {
	processor *worker.TurnProcessor
	storage   storage.Storage
	logger    *slog.Logger
}

func NewSessionHandler(processor *worker.TurnProcessor, store storage.Storage, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		processor: processor,
		storage:   store,
		logger:    logger,
	}
}

// CreateSessionRequest defines the body for creating a session. The path
// words seed character generation.
type CreateSessionRequest struct {
	PathWords string `json:"path_words"`
}

// SkillRequest defines the body for spending a skill point.
type SkillRequest struct {
	Stat string `json:"stat"`
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")

	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Use POST to create a session")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.SplitN(path, "/", 2)
	id, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleRead(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		h.handleDelete(w, r, id)
	case action == "turns" && r.Method == http.MethodPost:
		h.handleTurn(w, r, id)
	case action == "undo" && r.Method == http.MethodPost:
		h.handleUndo(w, r, id)
	case action == "skills" && r.Method == http.MethodPost:
		h.handleSkill(w, r, id)
	default:
		h.logger.Warn("Unknown session route", "method", r.Method, "path", r.URL.Path)
		writeError(w, h.logger, http.StatusNotFound, "Unknown session route")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	req.PathWords = strings.TrimSpace(req.PathWords)
	if req.PathWords == "" {
		writeError(w, h.logger, http.StatusBadRequest, "path_words field is required")
		return
	}

	gs, err := h.processor.CreateSession(r.Context(), req.PathWords)
	if err != nil {
		h.logger.Error("Failed to create session", "error", err)
		var incomplete *directive.IncompleteSheetError
		switch {
		case errors.As(err, &incomplete):
			writeError(w, h.logger, http.StatusUnprocessableEntity,
				"Character generation returned an incomplete sheet, try different path words")
		case errors.Is(err, worker.ErrGenerationFailed):
			writeError(w, h.logger, http.StatusBadGateway, "Character generation is unavailable, try again")
		default:
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to create session")
		}
		return
	}

	h.logger.Debug("Session created", "id", gs.ID.String())
	writeJSON(w, h.logger, http.StatusCreated, gs)
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	gs, err := h.storage.LoadSession(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load session", "error", err, "id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if gs == nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, gs)
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	// Routed through the processor so a delete cannot race an in-flight turn.
	if err := h.processor.DeleteSession(r.Context(), id); err != nil {
		if errors.Is(err, worker.ErrSessionBusy) {
			writeError(w, h.logger, http.StatusConflict, "Session is processing another turn")
			return
		}
		h.logger.Error("Failed to delete session", "error", err, "id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	h.logger.Debug("Session deleted", "id", id.String())
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) handleUndo(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	gs, undone, err := h.processor.Undo(r.Context(), id)
	if err != nil {
		h.writeProcessorError(w, err, id)
		return
	}
	if !undone {
		h.logger.Debug("Undo with empty history", "id", id.String())
	}
	// Empty history is a no-op: the unchanged state comes back with 200.
	writeJSON(w, h.logger, http.StatusOK, gs)
}

func (h *SessionHandler) handleSkill(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req SkillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if strings.TrimSpace(req.Stat) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "stat field is required")
		return
	}

	gs, err := h.processor.SpendSkillPoint(r.Context(), id, strings.ToLower(strings.TrimSpace(req.Stat)))
	if err != nil {
		switch {
		case errors.Is(err, worker.ErrSessionNotFound):
			writeError(w, h.logger, http.StatusNotFound, "Session not found")
		case errors.Is(err, worker.ErrSessionBusy):
			writeError(w, h.logger, http.StatusConflict, "Session is processing another turn")
		default:
			// Distribution errors (no points, unknown stat) are client mistakes.
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, h.logger, http.StatusOK, gs)
}

// writeProcessorError maps processor errors onto HTTP statuses.
func (h *SessionHandler) writeProcessorError(w http.ResponseWriter, err error, id uuid.UUID) {
	switch {
	case errors.Is(err, worker.ErrSessionNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
	case errors.Is(err, worker.ErrSessionBusy):
		writeError(w, h.logger, http.StatusConflict, "Session is processing another turn")
	default:
		h.logger.Error("Session operation failed", "error", err, "id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
	}
}
