package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/lowdens/scrimbot/config"
	"github.com/lowdens/scrimbot/leaderboard"
	"github.com/lowdens/scrimbot/tracker"
)

// recoveryScanLimit caps how many leaderboard-channel messages startup
// recovery inspects when looking for the bot's pinned messages.
const recoveryScanLimit = 50

// Bot bridges gateway events into the tracker. Guilds are initialized
// lazily as their create events arrive, so joining a new server needs no
// restart.
type Bot struct {
	s   *discordgo.Session
	tr  *tracker.Tracker
	pub *Publisher
	cfg *config.Config
	ctx context.Context

	mu      sync.Mutex
	results map[string]string
}

func NewBot(s *discordgo.Session, tr *tracker.Tracker, pub *Publisher, cfg *config.Config) *Bot {
	return &Bot{
		s:       s,
		tr:      tr,
		pub:     pub,
		cfg:     cfg,
		results: make(map[string]string),
	}
}

// Run registers the gateway handlers, opens the session, and blocks until
// the context is canceled.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	b.s.AddHandler(b.onReady)
	b.s.AddHandler(b.onGuildCreate)
	b.s.AddHandler(b.onMessageCreate)
	b.s.AddHandler(b.onMessageUpdate)
	b.s.AddHandler(b.onMessageDelete)

	if err := b.s.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	slog.Info("discord gateway open")

	<-ctx.Done()
	slog.Info("closing discord gateway")
	return b.s.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	slog.Info("logged in",
		slog.String("user", r.User.Username),
		slog.String("user_id", r.User.ID),
		slog.Int("guilds", len(r.Guilds)))
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if !b.cfg.GuildAllowed(g.ID) {
		slog.Debug("guild not in allow-list, skipping", slog.String("guild", g.ID))
		return
	}
	b.setupGuild(b.ctx, g.Guild)
}

// setupGuild resolves the configured channels, recovers persisted state from
// the pinned payload message, and hands the guild to the tracker. Guild
// create events refire on reconnect; an initialized guild is left alone.
func (b *Bot) setupGuild(ctx context.Context, g *discordgo.Guild) {
	resultsID := findTextChannel(g.Channels, b.cfg.ResultsChannel)
	boardID := findTextChannel(g.Channels, b.cfg.LeaderboardChannel)
	if resultsID == "" || boardID == "" {
		slog.Warn("guild missing configured channels",
			slog.String("guild", g.ID),
			slog.String("results_channel", b.cfg.ResultsChannel),
			slog.String("leaderboard_channel", b.cfg.LeaderboardChannel))
		return
	}

	b.mu.Lock()
	if _, ok := b.results[g.ID]; ok {
		b.mu.Unlock()
		return
	}
	b.results[g.ID] = resultsID
	b.mu.Unlock()

	b.pub.Track(g.ID, boardID)
	st := b.recoverState(ctx, g.ID, boardID)
	b.tr.Register(g.ID, resultsID)
	b.tr.AdoptState(g.ID, resultsID, st)

	// Same order as a cold start always ran: expire a reign that went stale
	// while the bot was down, then make sure both pinned messages exist and
	// match the adopted state.
	b.tr.Process(ctx, tracker.Event{
		Kind: tracker.EventSweep,
		Msg:  tracker.Message{GuildID: g.ID, ChannelID: resultsID},
		Corr: uuid.NewString(),
	})
	if err := b.tr.PublishNow(ctx, g.ID); err != nil {
		slog.Warn("initial publish failed",
			slog.String("guild", g.ID),
			slog.Any("err", err))
	}

	slog.Info("guild initialized",
		slog.String("guild", g.ID),
		slog.String("name", g.Name),
		slog.String("results_channel_id", resultsID),
		slog.String("leaderboard_channel_id", boardID))
}

// recoverState scans the newest leaderboard-channel messages for the bot's
// display and payload messages and rebuilds state from the payload.
func (b *Bot) recoverState(ctx context.Context, guildID, channelID string) *leaderboard.State {
	var selfID string
	if b.s.State != nil && b.s.State.User != nil {
		selfID = b.s.State.User.ID
	}

	msgs, err := b.s.ChannelMessages(channelID, recoveryScanLimit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		slog.Warn("could not scan leaderboard channel, starting fresh",
			slog.String("guild", guildID),
			slog.Any("err", err))
		return leaderboard.NewState()
	}

	displayID, payloadID, payloadContent := classifyRecovered(msgs, selfID, b.cfg.DisplayHeader, b.cfg.PayloadHeader)
	b.pub.SetMessageIDs(guildID, displayID, payloadID)

	if payloadContent == "" {
		slog.Info("no state payload found, starting fresh", slog.String("guild", guildID))
		return leaderboard.NewState()
	}
	st, err := leaderboard.ParsePayload(payloadContent)
	if err != nil {
		slog.Error("state payload corrupted, starting fresh",
			slog.String("guild", guildID),
			slog.String("message_id", payloadID),
			slog.Any("err", err))
		return leaderboard.NewState()
	}
	slog.Info("recovered state from payload message",
		slog.String("guild", guildID),
		slog.String("king", st.CurrentKingID),
		slog.Int("streak", st.CurrentStreak),
		slog.Int("players", len(st.BestStreaks)))
	return st
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author != nil && m.Author.Bot {
		return
	}
	if !b.isResultsChannel(m.GuildID, m.ChannelID) {
		return
	}
	b.tr.Enqueue(tracker.Event{Kind: tracker.EventCreate, Msg: FromDiscordMessage(m.Message), Corr: uuid.NewString()})
}

func (b *Bot) onMessageUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	if m.Author != nil && m.Author.Bot {
		return
	}
	if !b.isResultsChannel(m.GuildID, m.ChannelID) {
		return
	}
	// Embed fetches and other partial updates arrive without content.
	if m.Content == "" {
		return
	}
	if m.BeforeUpdate != nil && m.BeforeUpdate.Content == m.Content {
		return
	}
	b.tr.Enqueue(tracker.Event{Kind: tracker.EventEdit, Msg: FromDiscordMessage(m.Message), Corr: uuid.NewString()})
}

func (b *Bot) onMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	if !b.isResultsChannel(m.GuildID, m.ChannelID) {
		return
	}
	// Delete events carry only ids; the state cache may still have the
	// content, which lets the tracker skip recalculation for plain chatter.
	msg := tracker.Message{ID: m.ID, ChannelID: m.ChannelID, GuildID: m.GuildID}
	if m.BeforeDelete != nil {
		msg = FromDiscordMessage(m.BeforeDelete)
		msg.GuildID = m.GuildID
		msg.ChannelID = m.ChannelID
	}
	if msg.Bot {
		return
	}
	b.tr.Enqueue(tracker.Event{Kind: tracker.EventDelete, Msg: msg, Corr: uuid.NewString()})
}

func (b *Bot) isResultsChannel(guildID, channelID string) bool {
	if guildID == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.results[guildID] == channelID
}

// findTextChannel returns the id of the guild text channel with the given
// name, or empty when absent.
func findTextChannel(channels []*discordgo.Channel, name string) string {
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText && ch.Name == name {
			return ch.ID
		}
	}
	return ""
}

// classifyRecovered finds the newest display and payload messages authored
// by the bot, matched by their configured header prefixes. msgs arrive
// newest-first.
func classifyRecovered(msgs []*discordgo.Message, selfID, displayHeader, payloadHeader string) (displayID, payloadID, payloadContent string) {
	for _, m := range msgs {
		if m.Author == nil || m.Author.ID != selfID {
			continue
		}
		switch {
		case displayID == "" && strings.HasPrefix(m.Content, displayHeader):
			displayID = m.ID
		case payloadID == "" && strings.HasPrefix(m.Content, payloadHeader):
			payloadID = m.ID
			payloadContent = m.Content
		}
		if displayID != "" && payloadID != "" {
			break
		}
	}
	return displayID, payloadID, payloadContent
}
