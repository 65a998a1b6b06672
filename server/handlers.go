// Package server exposes the HTTP API handlers.
package server

import (
	"context"
	"time"

	"github.com/lowdens/scrimbot/leaderboard"
	"github.com/lowdens/scrimbot/tracker"
)

// StateSource is the read/repair surface the handlers need from the tracker.
// *tracker.Tracker satisfies it.
type StateSource interface {
	Guilds() []string
	Status() []tracker.GuildStatus
	Snapshot(guildID string) (*leaderboard.State, bool)
	InjectState(ctx context.Context, guildID string, st *leaderboard.State) error
}

// Gateway reports the Discord connection state for readiness probes.
type Gateway interface {
	Connected() bool
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	source  StateSource
	gateway Gateway
	started time.Time
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(source StateSource, gateway Gateway) *Handlers {
	return &Handlers{
		source:  source,
		gateway: gateway,
		started: time.Now(),
	}
}

// uptime returns whole seconds since the handlers were constructed.
func (h *Handlers) uptime() int64 {
	return int64(time.Since(h.started).Seconds())
}
