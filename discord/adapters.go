package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/lowdens/scrimbot/tracker"
)

// ChannelHistory implements tracker.History over the channel messages
// endpoint. Discord returns newest-first, which is the contract callers
// expect.
type ChannelHistory struct {
	s *discordgo.Session
}

func NewChannelHistory(s *discordgo.Session) *ChannelHistory {
	return &ChannelHistory{s: s}
}

func (h *ChannelHistory) Recent(ctx context.Context, channelID string, limit int) ([]tracker.Message, error) {
	msgs, err := h.s.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch channel history: %w", err)
	}
	out := make([]tracker.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, FromDiscordMessage(m))
	}
	return out, nil
}

// RoleManager implements king.Roles with get-or-create by role name. Role
// ids are cached per guild after the first lookup.
type RoleManager struct {
	s        *discordgo.Session
	roleName string

	mu      sync.Mutex
	roleIDs map[string]string
}

func NewRoleManager(s *discordgo.Session, roleName string) *RoleManager {
	return &RoleManager{
		s:        s,
		roleName: roleName,
		roleIDs:  make(map[string]string),
	}
}

// Ensure creates the configured role in the guild if it does not exist yet.
func (r *RoleManager) Ensure(ctx context.Context, guildID string) error {
	_, err := r.ensureRoleID(ctx, guildID)
	return err
}

func (r *RoleManager) Assign(ctx context.Context, guildID, userID, reason string) error {
	roleID, err := r.ensureRoleID(ctx, guildID)
	if err != nil {
		return err
	}
	if err := r.s.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason)); err != nil {
		return fmt.Errorf("assign role to %s: %w", userID, err)
	}
	return nil
}

func (r *RoleManager) Unassign(ctx context.Context, guildID, userID, reason string) error {
	roleID, err := r.findRoleID(ctx, guildID)
	if err != nil {
		return err
	}
	if roleID == "" {
		// Role was never created, nothing to take away.
		return nil
	}
	if err := r.s.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason)); err != nil {
		if isUnknownMember(err) {
			return nil
		}
		return fmt.Errorf("unassign role from %s: %w", userID, err)
	}
	return nil
}

// findRoleID resolves the role id from cache or the guild's role list.
// Returns empty with nil error when the role does not exist.
func (r *RoleManager) findRoleID(ctx context.Context, guildID string) (string, error) {
	r.mu.Lock()
	if id, ok := r.roleIDs[guildID]; ok {
		r.mu.Unlock()
		return id, nil
	}
	r.mu.Unlock()

	roles, err := r.s.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("list guild roles: %w", err)
	}
	for _, role := range roles {
		if role.Name == r.roleName {
			r.mu.Lock()
			r.roleIDs[guildID] = role.ID
			r.mu.Unlock()
			return role.ID, nil
		}
	}
	return "", nil
}

func (r *RoleManager) ensureRoleID(ctx context.Context, guildID string) (string, error) {
	id, err := r.findRoleID(ctx, guildID)
	if err != nil || id != "" {
		return id, err
	}

	role, err := r.s.GuildRoleCreate(guildID, &discordgo.RoleParams{Name: r.roleName},
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason("Scrim king role"))
	if err != nil {
		return "", fmt.Errorf("create role %q: %w", r.roleName, err)
	}
	slog.Info("created king role",
		slog.String("guild", guildID),
		slog.String("role", r.roleName),
		slog.String("role_id", role.ID))
	r.mu.Lock()
	r.roleIDs[guildID] = role.ID
	r.mu.Unlock()
	return role.ID, nil
}

// MemberResolver implements king.Resolver. The gateway member cache answers
// most lookups; departures fall through to REST where a 404 means gone.
type MemberResolver struct {
	s *discordgo.Session
}

func NewMemberResolver(s *discordgo.Session) *MemberResolver {
	return &MemberResolver{s: s}
}

func (r *MemberResolver) MemberExists(ctx context.Context, guildID, userID string) (bool, error) {
	if member, err := r.s.State.Member(guildID, userID); err == nil && member != nil {
		return true, nil
	}
	_, err := r.s.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		if isUnknownMember(err) {
			return false, nil
		}
		return false, fmt.Errorf("resolve member %s: %w", userID, err)
	}
	return true, nil
}
