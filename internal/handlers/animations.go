package handlers

import (
	"log/slog"
	"net/http"

	"github.com/brancaskitchen/office-rpg/internal/services"
)

// AnimationsResponse lists the animation names available to sessions.
type AnimationsResponse struct {
	Animations []string `json:"animations"`
}

type AnimationsHandler struct {
	animations services.AnimationService
	logger     *slog.Logger
}

func NewAnimationsHandler(animations services.AnimationService, logger *slog.Logger) *AnimationsHandler {
	return &AnimationsHandler{
		animations: animations,
		logger:     logger,
	}
}

func (h *AnimationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Use GET")
		return
	}

	names, err := h.animations.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list animations", "error", err)
		writeError(w, h.logger, http.StatusBadGateway, "Failed to list animations")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, AnimationsResponse{Animations: names})
}
