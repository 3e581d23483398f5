// Package handlers provides HTTP handlers for share-price history endpoints.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/quantfold/vault/internal/modules/history"
	"github.com/rs/zerolog"
)

// Handler handles history HTTP requests
type Handler struct {
	service *history.Service
	repo    *history.Repository
	log     zerolog.Logger
}

// NewHandler creates a new history handler
func NewHandler(service *history.Service, repo *history.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		repo:    repo,
		log:     log.With().Str("handler", "history").Logger(),
	}
}

// HandleGetHistory returns recent share-price snapshots
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 500)
	snapshots, err := h.repo.Recent(limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if snapshots == nil {
		snapshots = []history.Snapshot{}
	}
	h.writeJSON(w, http.StatusOK, snapshots)
}

// HandleGetStats returns return statistics over recent snapshots
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 500)
	stats, err := h.service.Stats(limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
