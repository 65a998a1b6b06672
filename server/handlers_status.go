package server

import (
	"encoding/json"
	"net/http"

	"github.com/lowdens/scrimbot/telemetry"
)

// HandleStatus returns a lightweight status summary: uptime, gateway state,
// and a per-guild breakdown of the tracked championships.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := map[string]any{
		"uptime_seconds":  h.uptime(),
		"tracing_enabled": telemetry.IsTracingEnabled(),
	}
	if h.gateway != nil {
		resp["gateway_connected"] = h.gateway.Connected()
	}
	if h.source != nil {
		statuses := h.source.Status()
		resp["guild_count"] = len(statuses)
		resp["guilds"] = statuses
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
