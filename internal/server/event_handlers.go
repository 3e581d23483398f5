package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/quantfold/vault/internal/events"
)

// EventHandlers serves the audit journal and the live event stream.
type EventHandlers struct {
	journal *events.Journal
	hub     *events.Hub
	log     zerolog.Logger
}

// NewEventHandlers creates a new event handler
func NewEventHandlers(journal *events.Journal, hub *events.Hub, log zerolog.Logger) *EventHandlers {
	return &EventHandlers{
		journal: journal,
		hub:     hub,
		log:     log.With().Str("handler", "events").Logger(),
	}
}

// HandleRecent returns recent journal entries, newest first. An optional
// type query parameter filters by event type.
func (h *EventHandlers) HandleRecent(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		h.writeError(w, http.StatusServiceUnavailable, "event journal not configured")
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var (
		result []events.StoredEvent
		err    error
	)
	if eventType := r.URL.Query().Get("type"); eventType != "" {
		result, err = h.journal.ByType(events.EventType(eventType), limit)
	} else {
		result, err = h.journal.Recent(limit)
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil {
		result = []events.StoredEvent{}
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleStream upgrades to a websocket and streams events live.
func (h *EventHandlers) HandleStream(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		h.writeError(w, http.StatusServiceUnavailable, "event stream not configured")
		return
	}
	h.hub.ServeHTTP(w, r)
}

func (h *EventHandlers) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *EventHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
