// Package discord adapts the Discord gateway and REST API to the tracker's
// interfaces: channel history, role management, member resolution, and the
// pinned-message publisher. The rest of the codebase never imports discordgo.
package discord

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/lowdens/scrimbot/tracker"
)

// NewSession builds a configured but unopened gateway session.
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
	// Handlers run on the gateway read loop so events reach the tracker in
	// arrival order. They only enqueue, so the loop is never blocked.
	dg.SyncEvents = true
	// Cache recent messages so deletes still carry their content.
	dg.State.MaxMessageCount = 200
	return dg, nil
}

// Gateway adapts the session's connection state for readiness probes.
type Gateway struct {
	s *discordgo.Session
}

func NewGateway(s *discordgo.Session) *Gateway {
	return &Gateway{s: s}
}

func (g *Gateway) Connected() bool {
	return g.s != nil && g.s.DataReady
}

// FromDiscordMessage converts a gateway message to the tracker's view.
// Partial update payloads can arrive without a timestamp; the creation time
// is then recovered from the snowflake id, which keeps dedup keys stable
// across edits.
func FromDiscordMessage(m *discordgo.Message) tracker.Message {
	ts := m.Timestamp
	if ts.IsZero() {
		if snowflake, err := discordgo.SnowflakeTimestamp(m.ID); err == nil {
			ts = snowflake
		}
	}
	msg := tracker.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
		Timestamp: ts.UTC(),
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.Bot = m.Author.Bot
	}
	return msg
}

// isUnknownMessage reports whether a REST error means the message is gone.
func isUnknownMessage(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage
}

// isUnknownMember reports whether a REST error means the user is not a guild
// member anymore.
func isUnknownMember(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMember {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
