package tracker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// StartExpirySweeper periodically enqueues a sweep per guild so an idle
// reign expires even when the channel stays quiet. Runs once immediately,
// then on the interval until the context is canceled.
func (t *Tracker) StartExpirySweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	slog.Info("expiry sweeper starting", slog.Duration("interval", interval))
	t.sweepAll()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			t.sweepAll()
		}
	}
}

func (t *Tracker) sweepAll() {
	t.mu.Lock()
	sessions := make([]*session, 0, len(t.sessions))
	for _, s := range t.sessions {
		sessions = append(sessions, s)
	}
	t.mu.Unlock()

	for _, sess := range sessions {
		t.Enqueue(Event{
			Kind: EventSweep,
			Msg:  Message{GuildID: sess.GuildID, ChannelID: sess.ChannelID},
			Corr: uuid.NewString(),
		})
	}
}
