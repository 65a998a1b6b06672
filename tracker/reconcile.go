package tracker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lowdens/scrimbot/game"
	"github.com/lowdens/scrimbot/leaderboard"
	"github.com/lowdens/scrimbot/telemetry"
)

// Fingerprint hashes message content for edit detection.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ResultKey builds the composite dedup key for one outcome: message id, the
// two player ids in canonical order, and the message creation time. The key
// is stable across edits because the creation time never changes.
func ResultKey(messageID string, r game.Result, ts time.Time) string {
	low, high := r.SortedPlayerIDs()
	return messageID + ":" + low + ":" + high + ":" + strconv.FormatInt(ts.Unix(), 10)
}

// Process applies one event and publishes the leaderboard when the state
// changed. Run is the only caller in normal operation; it is exported so the
// pipeline can be driven synchronously.
func (t *Tracker) Process(ctx context.Context, ev Event) Outcome {
	sess, ok := t.lookup(ev.Msg.GuildID)
	if !ok {
		slog.Debug("event for untracked guild",
			slog.String("guild", ev.Msg.GuildID),
			slog.String("kind", ev.Kind.String()))
		return OutcomeNoop
	}

	t.stateMu.Lock()
	defer t.stateMu.Unlock()

	if ev.Corr != "" {
		ctx = telemetry.WithCorrelation(ctx, ev.Corr)
	}
	ctx, span := telemetry.StartSpan(ctx, "tracker", "tracker.process",
		telemetry.GuildAttr(ev.Msg.GuildID),
		telemetry.EventKindAttr(ev.Kind.String()),
		telemetry.MessageIDAttr(ev.Msg.ID))
	defer span.End()

	start := time.Now()
	var outcome Outcome
	var changed bool
	switch ev.Kind {
	case EventCreate, EventEdit:
		outcome, changed = t.handleMessage(ctx, sess, ev.Msg)
	case EventDelete:
		outcome, changed = t.handleDelete(ctx, sess, ev.Msg)
	case EventSweep:
		outcome, changed = t.handleSweep(ctx, sess)
	default:
		outcome = OutcomeNoop
	}

	telemetry.IncEvent(ev.Kind.String(), outcome.String())
	telemetry.ObserveReconcile(time.Since(start).Seconds())
	telemetry.SetCurrentStreak(sess.GuildID, float64(sess.State.CurrentStreak))
	telemetry.SetTrackedMessages(sess.GuildID, float64(len(sess.State.ProcessedMessages)))

	span.SetAttributes(telemetry.OutcomeAttr(outcome.String()))
	if outcome == OutcomeAborted {
		telemetry.ErrorStatus(span, "history unavailable")
	} else {
		telemetry.SetSpanSuccess(span)
	}

	if changed {
		t.publishLocked(ctx, sess)
	}
	return outcome
}

// handleMessage runs the create/edit pipeline: timeout check, parse, winner
// change detection, fingerprint dedup, then apply.
func (t *Tracker) handleMessage(ctx context.Context, sess *session, msg Message) (Outcome, bool) {
	changed := sess.King.CheckTimeout(ctx, time.Now())

	results := game.Parse(msg.Content)
	if len(results) == 0 {
		return OutcomeNoMatch, changed
	}

	for _, r := range results {
		key := ResultKey(msg.ID, r, msg.Timestamp)
		prev, ok := sess.State.ResultWinner(key)
		if !ok || prev == "" || prev == r.WinnerID() {
			continue
		}
		slog.Info("recorded result changed winner",
			slog.String("guild", sess.GuildID),
			slog.String("message_id", msg.ID),
			slog.String("was", prev),
			slog.String("now", r.WinnerID()))
		recent, err := t.isRecent(ctx, sess, msg.ID)
		if err != nil {
			return OutcomeAborted, changed
		}
		if !recent {
			slog.Info("edited message left the recent window, ignoring",
				slog.String("guild", sess.GuildID),
				slog.String("message_id", msg.ID))
			return OutcomeIgnoredTooOld, changed
		}
		if !t.recalculate(ctx, sess) {
			return OutcomeAborted, changed
		}
		return OutcomeRecalculated, true
	}

	fp := Fingerprint(msg.Content)
	if sess.State.MessageUnchanged(msg.ID, fp) {
		slog.Debug("message already processed",
			slog.String("guild", sess.GuildID),
			slog.String("message_id", msg.ID))
		return OutcomeDuplicate, changed
	}

	for _, r := range results {
		key := ResultKey(msg.ID, r, msg.Timestamp)
		if _, ok := sess.State.ResultWinner(key); ok {
			continue
		}
		sess.King.Apply(ctx, r, msg.Timestamp)
		sess.State.MarkResultProcessed(key, r.WinnerID())
		telemetry.IncResultApplied()
	}
	sess.State.MarkMessageProcessed(msg.ID, fp)
	t.prune(ctx, sess)
	return OutcomeApplied, true
}

// handleDelete triggers a recalculation only when the deleted message was
// inside a previously considered window. The parse check runs only when the
// gateway still had the content cached.
func (t *Tracker) handleDelete(ctx context.Context, sess *session, msg Message) (Outcome, bool) {
	if msg.Content != "" && len(game.Parse(msg.Content)) == 0 {
		return OutcomeNoMatch, false
	}
	if !sess.State.Tracked(msg.ID) {
		slog.Debug("deleted message was not tracked",
			slog.String("guild", sess.GuildID),
			slog.String("message_id", msg.ID))
		return OutcomeNoop, false
	}
	slog.Info("tracked message deleted, recalculating",
		slog.String("guild", sess.GuildID),
		slog.String("message_id", msg.ID))
	if !t.recalculate(ctx, sess) {
		return OutcomeAborted, false
	}
	return OutcomeRecalculated, true
}

func (t *Tracker) handleSweep(ctx context.Context, sess *session) (Outcome, bool) {
	if sess.King.CheckTimeout(ctx, time.Now()) {
		return OutcomeExpired, true
	}
	return OutcomeNoop, false
}

// isRecent reports whether the message is still inside the recent channel
// window, scanned newest-first.
func (t *Tracker) isRecent(ctx context.Context, sess *session, messageID string) (bool, error) {
	window, err := t.history.Recent(ctx, sess.ChannelID, t.opts.RecentWindow)
	if err != nil {
		slog.Warn("history unavailable, cannot classify edit",
			slog.String("guild", sess.GuildID),
			slog.String("message_id", messageID),
			slog.Any("err", err))
		return false, err
	}
	for _, m := range window {
		if m.ID == messageID {
			return true, nil
		}
	}
	return false, nil
}

// recalculate rebuilds the state from the recent channel window. History is
// fetched before anything is cleared, so an unavailable channel leaves the
// state exactly as it was. Role side effects are suppressed during replay;
// the holder diff at the end emits the net role changes.
func (t *Tracker) recalculate(ctx context.Context, sess *session) bool {
	window, err := t.history.Recent(ctx, sess.ChannelID, t.opts.RecentWindow)
	if err != nil {
		slog.Warn("history unavailable, recalculation aborted",
			slog.String("guild", sess.GuildID),
			slog.String("channel", sess.ChannelID),
			slog.Any("err", err))
		return false
	}

	st := sess.State
	oldKing, oldStreak := st.CurrentKingID, st.CurrentStreak
	st.ClearLedgers()
	st.Vacate()
	st.LastActivity = nil

	savedRoles := sess.King.Roles
	sess.King.Roles = nil
	// window arrives newest-first; replay runs oldest-first
	for i := len(window) - 1; i >= 0; i-- {
		if window[i].Bot {
			continue
		}
		t.replayMessage(ctx, sess, window[i])
	}
	sess.King.Roles = savedRoles

	switch {
	case st.CurrentKingID == oldKing:
		if st.CurrentKingID != "" {
			sess.King.AssignRole(ctx, st.CurrentKingID, "Restoring king role after recalculation")
		}
	default:
		if oldKing != "" {
			sess.King.UnassignRole(ctx, oldKing, "King changed during recalculation")
		}
		if st.CurrentKingID != "" {
			sess.King.AssignRole(ctx, st.CurrentKingID, "Won game, became king")
		}
	}

	slog.Info("recalculated from recent window",
		slog.String("guild", sess.GuildID),
		slog.Int("window", len(window)),
		slog.String("old_king", oldKing),
		slog.Int("old_streak", oldStreak),
		slog.String("king", st.CurrentKingID),
		slog.Int("streak", st.CurrentStreak))
	telemetry.IncRecalculation()

	t.pruneAgainst(sess, window)
	return true
}

// replayMessage reapplies one historical message. Ledgers were just cleared,
// so every result it sees is applied and re-recorded.
func (t *Tracker) replayMessage(ctx context.Context, sess *session, msg Message) {
	results := game.Parse(msg.Content)
	if len(results) == 0 {
		return
	}
	for _, r := range results {
		key := ResultKey(msg.ID, r, msg.Timestamp)
		if _, ok := sess.State.ResultWinner(key); ok {
			continue
		}
		sess.King.Apply(ctx, r, msg.Timestamp)
		sess.State.MarkResultProcessed(key, r.WinnerID())
		telemetry.IncResultApplied()
	}
	sess.State.MarkMessageProcessed(msg.ID, Fingerprint(msg.Content))
}

// prune refetches the recent window and drops ledger entries for messages
// that fell out of it. Best-effort: an unavailable channel just skips the
// prune.
func (t *Tracker) prune(ctx context.Context, sess *session) {
	window, err := t.history.Recent(ctx, sess.ChannelID, t.opts.RecentWindow)
	if err != nil {
		slog.Warn("history unavailable, ledger prune skipped",
			slog.String("guild", sess.GuildID),
			slog.Any("err", err))
		return
	}
	t.pruneAgainst(sess, window)
}

func (t *Tracker) pruneAgainst(sess *session, window []Message) {
	live := make(map[string]bool, len(window))
	for _, m := range window {
		live[m.ID] = true
	}
	st := sess.State
	droppedMsgs, droppedResults := 0, 0
	for id := range st.ProcessedMessages {
		if !live[id] {
			delete(st.ProcessedMessages, id)
			droppedMsgs++
		}
	}
	for key := range st.ProcessedResults {
		id, _, _ := strings.Cut(key, ":")
		if !live[id] {
			delete(st.ProcessedResults, key)
			droppedResults++
		}
	}
	if droppedMsgs > 0 || droppedResults > 0 {
		slog.Debug("pruned dedup ledgers",
			slog.String("guild", sess.GuildID),
			slog.Int("messages", droppedMsgs),
			slog.Int("results", droppedResults))
	}
}

// publishLocked renders and publishes both leaderboard messages. Callers
// hold stateMu.
func (t *Tracker) publishLocked(ctx context.Context, sess *session) {
	ctx, span := telemetry.StartSpan(ctx, "tracker", "tracker.publish",
		telemetry.GuildAttr(sess.GuildID),
		telemetry.ChannelAttr(sess.ChannelID))
	defer span.End()

	display := leaderboard.RenderDisplay(sess.State, leaderboard.RenderOptions{
		Header:  t.opts.DisplayHeader,
		TopN:    t.opts.TopN,
		Timeout: t.opts.TitleTimeout,
	})
	payload, err := leaderboard.RenderPayload(sess.State, t.opts.PayloadHeader)
	if err != nil {
		telemetry.IncPublishFailure()
		telemetry.RecordError(span, err)
		slog.Error("could not render state payload",
			slog.String("guild", sess.GuildID),
			slog.Any("err", err))
		return
	}
	if t.pub == nil {
		return
	}
	if err := t.pub.Publish(ctx, sess.GuildID, display, payload); err != nil {
		telemetry.IncPublishFailure()
		telemetry.RecordError(span, err)
		slog.Warn("could not publish leaderboard",
			slog.String("guild", sess.GuildID),
			slog.Any("err", err))
		return
	}
	telemetry.SetSpanSuccess(span)
}
