// Package tracker reconciles results-channel messages into championship
// state and publishes the leaderboard. A single goroutine owns all state
// mutation; gateway callbacks hand events over a buffered queue and every
// other reader takes a snapshot.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/lowdens/scrimbot/king"
	"github.com/lowdens/scrimbot/leaderboard"
	"github.com/lowdens/scrimbot/telemetry"
)

// ErrUnknownGuild is returned when an operation names a guild the tracker
// was never registered for.
var ErrUnknownGuild = errors.New("unknown guild")

// Message is the transport-neutral view of a channel message.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	AuthorID  string
	Bot       bool
	Content   string
	Timestamp time.Time
}

// EventKind says how a message entered the pipeline.
type EventKind int

const (
	EventCreate EventKind = iota
	EventEdit
	EventDelete
	EventSweep
)

func (k EventKind) String() string {
	switch k {
	case EventCreate:
		return "create"
	case EventEdit:
		return "edit"
	case EventDelete:
		return "delete"
	case EventSweep:
		return "sweep"
	default:
		return "unknown"
	}
}

// Event is one unit of reconciliation work.
type Event struct {
	Kind EventKind
	Msg  Message
	Corr string
}

// History fetches recent messages from a channel. Implementations return
// messages newest-first; callers that replay reverse the slice themselves.
type History interface {
	Recent(ctx context.Context, channelID string, limit int) ([]Message, error)
}

// Publisher upserts the two leaderboard messages for a guild.
type Publisher interface {
	Publish(ctx context.Context, guildID, display, payload string) error
}

// Options tune the reconciliation behavior. Zero values fall back to the
// defaults.
type Options struct {
	RecentWindow  int
	TitleTimeout  time.Duration
	TopN          int
	DisplayHeader string
	PayloadHeader string
	QueueSize     int
}

const (
	defaultRecentWindow  = 5
	defaultTitleTimeout  = 72 * time.Hour
	defaultTopN          = 10
	defaultQueueSize     = 256
	defaultDisplayHeader = "🏆 Scrim Leaderboard"
	defaultPayloadHeader = "📊 Bot State"
)

func (o Options) withDefaults() Options {
	if o.RecentWindow <= 0 {
		o.RecentWindow = defaultRecentWindow
	}
	if o.TitleTimeout <= 0 {
		o.TitleTimeout = defaultTitleTimeout
	}
	if o.TopN <= 0 {
		o.TopN = defaultTopN
	}
	if o.QueueSize <= 0 {
		o.QueueSize = defaultQueueSize
	}
	if o.DisplayHeader == "" {
		o.DisplayHeader = defaultDisplayHeader
	}
	if o.PayloadHeader == "" {
		o.PayloadHeader = defaultPayloadHeader
	}
	return o
}

// session binds one guild's state to its results channel and title manager.
type session struct {
	GuildID   string
	ChannelID string
	State     *leaderboard.State
	King      *king.Manager
}

// Tracker owns the per-guild sessions and the reconciliation loop.
type Tracker struct {
	history  History
	pub      Publisher
	roles    king.Roles
	resolver king.Resolver
	opts     Options

	// mu guards the sessions map; stateMu serializes whole reconciliation
	// passes against snapshot readers.
	mu       sync.Mutex
	sessions map[string]*session
	stateMu  sync.Mutex

	events chan Event
}

// New assembles a tracker over the given outbound ports.
func New(h History, p Publisher, roles king.Roles, resolver king.Resolver, opts Options) *Tracker {
	opts = opts.withDefaults()
	return &Tracker{
		history:  h,
		pub:      p,
		roles:    roles,
		resolver: resolver,
		opts:     opts,
		sessions: make(map[string]*session),
		events:   make(chan Event, opts.QueueSize),
	}
}

// Register creates the session for a guild on first sight and binds it to
// its results channel. An existing session only has its channel refreshed.
func (t *Tracker) Register(guildID, channelID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureSessionLocked(guildID, channelID)
}

// AdoptState installs a recovered state for a guild, replacing whatever the
// session held.
func (t *Tracker) AdoptState(guildID, channelID string, st *leaderboard.State) {
	t.mu.Lock()
	sess := t.ensureSessionLocked(guildID, channelID)
	t.mu.Unlock()

	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	*sess.State = *st.Clone()
	slog.Info("adopted recovered state",
		slog.String("guild", guildID),
		slog.String("king", sess.State.CurrentKingID),
		slog.Int("streak", sess.State.CurrentStreak),
		slog.Int("players", len(sess.State.BestStreaks)))
}

// PublishNow renders and publishes a guild's messages regardless of whether
// anything changed. Startup uses it so a fresh install gets its pinned
// messages before the first game is reported.
func (t *Tracker) PublishNow(ctx context.Context, guildID string) error {
	sess, ok := t.lookup(guildID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGuild, guildID)
	}
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	t.publishLocked(ctx, sess)
	return nil
}

func (t *Tracker) ensureSessionLocked(guildID, channelID string) *session {
	if sess, ok := t.sessions[guildID]; ok {
		if channelID != "" {
			sess.ChannelID = channelID
		}
		return sess
	}
	st := leaderboard.NewState()
	sess := &session{
		GuildID:   guildID,
		ChannelID: channelID,
		State:     st,
		King: &king.Manager{
			GuildID:  guildID,
			State:    st,
			Roles:    t.roles,
			Resolver: t.resolver,
			Timeout:  t.opts.TitleTimeout,
		},
	}
	t.sessions[guildID] = sess
	slog.Info("tracking guild",
		slog.String("guild", guildID),
		slog.String("channel", channelID))
	return sess
}

func (t *Tracker) lookup(guildID string) (*session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sess, ok := t.sessions[guildID]
	return sess, ok
}

// Guilds lists the registered guild ids in stable order.
func (t *Tracker) Guilds() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.sessions))
	for id := range t.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns a deep copy of a guild's state.
func (t *Tracker) Snapshot(guildID string) (*leaderboard.State, bool) {
	sess, ok := t.lookup(guildID)
	if !ok {
		return nil, false
	}
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return sess.State.Clone(), true
}

// GuildStatus is a read-only summary of one guild for the status surface.
type GuildStatus struct {
	GuildID         string     `json:"guild_id"`
	ChannelID       string     `json:"channel_id"`
	KingID          string     `json:"king_id,omitempty"`
	Streak          int        `json:"streak"`
	EgoFloor        string     `json:"ego_floor"`
	LastActivity    *time.Time `json:"last_activity,omitempty"`
	TrackedMessages int        `json:"tracked_messages"`
	TrackedResults  int        `json:"tracked_results"`
	Players         int        `json:"players"`
}

// Status summarizes every registered guild.
func (t *Tracker) Status() []GuildStatus {
	t.mu.Lock()
	sessions := make([]*session, 0, len(t.sessions))
	for _, s := range t.sessions {
		sessions = append(sessions, s)
	}
	t.mu.Unlock()

	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	out := make([]GuildStatus, 0, len(sessions))
	for _, sess := range sessions {
		st := sess.State
		gs := GuildStatus{
			GuildID:         sess.GuildID,
			ChannelID:       sess.ChannelID,
			KingID:          st.CurrentKingID,
			Streak:          st.CurrentStreak,
			EgoFloor:        leaderboard.EgoFloorString(st.CurrentKingEgoFloor),
			TrackedMessages: len(st.ProcessedMessages),
			TrackedResults:  len(st.ProcessedResults),
			Players:         len(st.BestStreaks),
		}
		if st.LastActivity != nil {
			ts := *st.LastActivity
			gs.LastActivity = &ts
		}
		out = append(out, gs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GuildID < out[j].GuildID })
	return out
}

// InjectState replaces a guild's state and republishes the leaderboard. This
// is the manual repair path behind the admin surface.
func (t *Tracker) InjectState(ctx context.Context, guildID string, st *leaderboard.State) error {
	sess, ok := t.lookup(guildID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGuild, guildID)
	}
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	*sess.State = *st.Clone()
	slog.Info("state injected",
		slog.String("guild", guildID),
		slog.String("king", sess.State.CurrentKingID),
		slog.Int("streak", sess.State.CurrentStreak))
	t.publishLocked(ctx, sess)
	return nil
}

// Enqueue hands an event to the reconciliation loop without blocking the
// gateway callback. When the queue is full the event is dropped and counted.
func (t *Tracker) Enqueue(ev Event) {
	select {
	case t.events <- ev:
	default:
		telemetry.IncEventDropped()
		slog.Warn("event queue full, dropping event",
			slog.String("kind", ev.Kind.String()),
			slog.String("guild", ev.Msg.GuildID),
			slog.String("message_id", ev.Msg.ID))
	}
}

// Run consumes events until the context is canceled. All state mutation
// happens on this goroutine.
func (t *Tracker) Run(ctx context.Context) {
	slog.Info("tracker starting", slog.Int("queue_size", cap(t.events)))
	for {
		select {
		case <-ctx.Done():
			slog.Info("tracker stopped")
			return
		case ev := <-t.events:
			t.Process(ctx, ev)
		}
	}
}
