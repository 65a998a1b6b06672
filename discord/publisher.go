package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Publisher implements tracker.Publisher by maintaining two pinned bot
// messages per guild in the leaderboard channel: the human-readable display
// and the state payload. Messages are edited in place; if someone deleted
// one, it is recreated and pinned again.
type Publisher struct {
	s *discordgo.Session

	mu         sync.Mutex
	channels   map[string]string
	displayIDs map[string]string
	payloadIDs map[string]string
}

func NewPublisher(s *discordgo.Session) *Publisher {
	return &Publisher{
		s:          s,
		channels:   make(map[string]string),
		displayIDs: make(map[string]string),
		payloadIDs: make(map[string]string),
	}
}

// Track binds a guild to its leaderboard channel.
func (p *Publisher) Track(guildID, channelID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels[guildID] = channelID
}

// SetMessageIDs installs message ids found during startup recovery so the
// first publish edits the existing messages instead of posting new ones.
// Empty ids are ignored.
func (p *Publisher) SetMessageIDs(guildID, displayID, payloadID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if displayID != "" {
		p.displayIDs[guildID] = displayID
	}
	if payloadID != "" {
		p.payloadIDs[guildID] = payloadID
	}
}

func (p *Publisher) Publish(ctx context.Context, guildID, display, payload string) error {
	p.mu.Lock()
	channelID := p.channels[guildID]
	displayID := p.displayIDs[guildID]
	payloadID := p.payloadIDs[guildID]
	p.mu.Unlock()

	if channelID == "" {
		return fmt.Errorf("no leaderboard channel for guild %s", guildID)
	}

	newDisplayID, err := p.upsert(ctx, channelID, displayID, display)
	if err != nil {
		return fmt.Errorf("publish display: %w", err)
	}
	newPayloadID, err := p.upsert(ctx, channelID, payloadID, payload)
	if err != nil {
		return fmt.Errorf("publish payload: %w", err)
	}

	p.mu.Lock()
	p.displayIDs[guildID] = newDisplayID
	p.payloadIDs[guildID] = newPayloadID
	p.mu.Unlock()
	return nil
}

// upsert edits the tracked message, or sends and pins a fresh one when there
// is no tracked message or it no longer exists.
func (p *Publisher) upsert(ctx context.Context, channelID, messageID, content string) (string, error) {
	if messageID != "" {
		_, err := p.s.ChannelMessageEdit(channelID, messageID, content, discordgo.WithContext(ctx))
		if err == nil {
			return messageID, nil
		}
		if !isUnknownMessage(err) {
			return "", err
		}
		slog.Info("tracked message is gone, recreating",
			slog.String("channel", channelID),
			slog.String("message_id", messageID))
	}

	m, err := p.s.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	if err := p.s.ChannelMessagePin(channelID, m.ID, discordgo.WithContext(ctx), discordgo.WithAuditLogReason("Scrim leaderboard")); err != nil {
		slog.Warn("could not pin leaderboard message",
			slog.String("channel", channelID),
			slog.Any("err", err))
	}
	return m.ID, nil
}
