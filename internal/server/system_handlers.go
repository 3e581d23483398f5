package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/quantfold/vault/internal/events"
	"github.com/quantfold/vault/internal/fund"
)

// SystemHandlers handles system-wide monitoring endpoints
type SystemHandlers struct {
	fund        *fund.Fund
	hub         *events.Hub
	startupTime time.Time
	log         zerolog.Logger
}

// NewSystemHandlers creates a new system handler
func NewSystemHandlers(f *fund.Fund, hub *events.Hub, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		fund:        f,
		hub:         hub,
		startupTime: time.Now(),
		log:         log.With().Str("handler", "system").Logger(),
	}
}

// HandleHealth is the liveness probe
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleSystemHealth reports process and fund vitals
func (h *SystemHandlers) HandleSystemHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startupTime).Seconds()),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		response["memory_used_percent"] = vm.UsedPercent
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		response["cpu_percent"] = percents[0]
	}
	if h.hub != nil {
		response["event_subscribers"] = h.hub.SubscriberCount()
	}

	status, err := h.fund.Status(r.Context())
	if err != nil {
		response["status"] = "degraded"
		response["fund_error"] = err.Error()
	} else {
		response["fund"] = map[string]any{
			"total_value":  status.TotalValue,
			"total_shares": status.TotalShares,
			"strategies":   len(status.Strategies),
			"queue_depth":  status.QueueDepth,
			"queue_live":   status.QueueLive,
		}
	}

	h.writeJSON(w, http.StatusOK, response)
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
