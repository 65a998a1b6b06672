package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/lowdens/scrimbot/leaderboard"
	"github.com/lowdens/scrimbot/tracker"
)

// maxStateBody caps admin state uploads. A populated state is a few KB;
// anything near the cap is garbage.
const maxStateBody = 1 << 20

// HandleAdminState exports (GET) or replaces (POST) a guild's championship
// state as the same JSON document the bot embeds in the pinned state message.
// This is the manual repair path when the persisted payload is corrupted.
func (h *Handlers) HandleAdminState(w http.ResponseWriter, r *http.Request) {
	guildID, err := h.resolveGuild(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		st, ok := h.source.Snapshot(guildID)
		if !ok {
			http.Error(w, "guild not tracked", http.StatusNotFound)
			return
		}
		payload, err := leaderboard.MarshalState(st)
		if err != nil {
			http.Error(w, "encode state", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	case http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxStateBody))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		st, err := leaderboard.UnmarshalState(body)
		if err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := h.source.InjectState(r.Context(), guildID, st); err != nil {
			if errors.Is(err, tracker.ErrUnknownGuild) {
				http.Error(w, "guild not tracked", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		slog.Info("admin state injected",
			slog.String("guild", guildID),
			slog.String("king", st.CurrentKingID),
			slog.Int("streak", st.CurrentStreak))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"guild_id": guildID,
			"king":     st.CurrentKingID,
			"streak":   st.CurrentStreak,
		})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// resolveGuild picks the guild from the query, falling back to the only
// tracked guild when exactly one exists.
func (h *Handlers) resolveGuild(r *http.Request) (string, error) {
	if guildID := r.URL.Query().Get("guild"); guildID != "" {
		return guildID, nil
	}
	guilds := h.source.Guilds()
	if len(guilds) == 1 {
		return guilds[0], nil
	}
	return "", fmt.Errorf("guild parameter required (%d guilds tracked)", len(guilds))
}
