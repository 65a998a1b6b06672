// Package testutil provides in-memory fakes for the tracker's outbound ports
// so reconciliation paths can be exercised without a gateway connection.
package testutil

import (
	"context"

	"github.com/lowdens/scrimbot/tracker"
)

// FakeHistory serves canned channel history. Messages are held newest-first,
// matching the order the real history source returns.
type FakeHistory struct {
	Messages []tracker.Message
	Err      error
	Calls    int
}

// Recent returns up to limit messages, newest first.
func (f *FakeHistory) Recent(ctx context.Context, channelID string, limit int) ([]tracker.Message, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	msgs := f.Messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	out := make([]tracker.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Prepend inserts a message at the newest end of the history.
func (f *FakeHistory) Prepend(m tracker.Message) {
	f.Messages = append([]tracker.Message{m}, f.Messages...)
}

// RoleChange records one role grant or revocation.
type RoleChange struct {
	GuildID string
	UserID  string
	Reason  string
}

// FakeRoles records role operations. Set FailWith to make every call fail.
type FakeRoles struct {
	Ensured   map[string]int
	Assigns   []RoleChange
	Unassigns []RoleChange
	FailWith  error
}

func NewFakeRoles() *FakeRoles {
	return &FakeRoles{Ensured: make(map[string]int)}
}

func (f *FakeRoles) Ensure(ctx context.Context, guildID string) error {
	if f.FailWith != nil {
		return f.FailWith
	}
	f.Ensured[guildID]++
	return nil
}

func (f *FakeRoles) Assign(ctx context.Context, guildID, userID, reason string) error {
	if f.FailWith != nil {
		return f.FailWith
	}
	f.Assigns = append(f.Assigns, RoleChange{GuildID: guildID, UserID: userID, Reason: reason})
	return nil
}

func (f *FakeRoles) Unassign(ctx context.Context, guildID, userID, reason string) error {
	if f.FailWith != nil {
		return f.FailWith
	}
	f.Unassigns = append(f.Unassigns, RoleChange{GuildID: guildID, UserID: userID, Reason: reason})
	return nil
}

// FakeResolver reports guild membership. Users in Gone have left; everyone
// else is a member. Set Err to make lookups fail.
type FakeResolver struct {
	Gone map[string]bool
	Err  error
}

func (f *FakeResolver) MemberExists(ctx context.Context, guildID, userID string) (bool, error) {
	if f.Err != nil {
		return false, f.Err
	}
	return !f.Gone[userID], nil
}

// FakePublisher captures published leaderboard messages per guild.
type FakePublisher struct {
	Displays []string
	Payloads []string
	Guilds   []string
	Err      error
}

func (f *FakePublisher) Publish(ctx context.Context, guildID, display, payload string) error {
	if f.Err != nil {
		return f.Err
	}
	f.Guilds = append(f.Guilds, guildID)
	f.Displays = append(f.Displays, display)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// LastDisplay returns the most recently published display message, or "".
func (f *FakePublisher) LastDisplay() string {
	if len(f.Displays) == 0 {
		return ""
	}
	return f.Displays[len(f.Displays)-1]
}

// LastPayload returns the most recently published payload message, or "".
func (f *FakePublisher) LastPayload() string {
	if len(f.Payloads) == 0 {
		return ""
	}
	return f.Payloads[len(f.Payloads)-1]
}
