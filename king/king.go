// Package king applies game outcomes to the championship state: crowning,
// defending, dethroning, and expiring the title after inactivity. It also
// drives the guild role that marks the current holder.
package king

import (
	"context"
	"log/slog"
	"time"

	"github.com/lowdens/scrimbot/game"
	"github.com/lowdens/scrimbot/leaderboard"
	"github.com/lowdens/scrimbot/telemetry"
)

// Roles grants and revokes the championship role in a guild. Implementations
// create the role on first use.
type Roles interface {
	Ensure(ctx context.Context, guildID string) error
	Assign(ctx context.Context, guildID, userID, reason string) error
	Unassign(ctx context.Context, guildID, userID, reason string) error
}

// Resolver answers whether a user is still a member of the guild.
type Resolver interface {
	MemberExists(ctx context.Context, guildID, userID string) (bool, error)
}

// Manager owns the title transitions for one guild. Role and membership
// lookups can fail without consequence: the state transition always
// completes, and only the transition outcome is authoritative.
type Manager struct {
	GuildID  string
	State    *leaderboard.State
	Roles    Roles
	Resolver Resolver
	Timeout  time.Duration
}

// Apply folds one game result into the state at the given timestamp and
// performs the matching role changes.
func (m *Manager) Apply(ctx context.Context, r game.Result, ts time.Time) {
	m.reconcileHolder(ctx)

	s := m.State
	winner, loser := r.WinnerID(), r.LoserID()
	switch {
	case !s.HasKing():
		s.Crown(winner, r.WinnerEgo(), 1)
		s.Touch(ts)
		s.RecordBestStreak(winner, 1, r.WinnerEgo())
		slog.Info("title claimed",
			slog.String("guild", m.GuildID),
			slog.String("king", winner),
			slog.Int("ego", r.WinnerEgo()))
		m.AssignRole(ctx, winner, "Won game, became king")

	case winner == s.CurrentKingID:
		s.CurrentStreak++
		s.TightenEgoFloor(r.WinnerEgo())
		s.Touch(ts)
		if s.RecordBestStreak(winner, s.CurrentStreak, *s.CurrentKingEgoFloor) {
			slog.Info("new best streak",
				slog.String("guild", m.GuildID),
				slog.String("king", winner),
				slog.Int("streak", s.CurrentStreak))
		}
		slog.Info("title defended",
			slog.String("guild", m.GuildID),
			slog.String("king", winner),
			slog.Int("streak", s.CurrentStreak),
			slog.String("ego_floor", leaderboard.EgoFloorString(s.CurrentKingEgoFloor)))

	case loser == s.CurrentKingID:
		old, oldStreak := s.CurrentKingID, s.CurrentStreak
		if s.CurrentKingEgoFloor != nil {
			s.RecordBestStreak(old, oldStreak, *s.CurrentKingEgoFloor)
		}
		s.Crown(winner, r.WinnerEgo(), 1)
		s.Touch(ts)
		s.RecordBestStreak(winner, 1, r.WinnerEgo())
		slog.Info("title changed hands",
			slog.String("guild", m.GuildID),
			slog.String("old_king", old),
			slog.String("new_king", winner),
			slog.Int("ended_streak", oldStreak))
		m.UnassignRole(ctx, old, "Lost game as king")
		m.AssignRole(ctx, winner, "Defeated the king")

	default:
		// A game between two challengers never touches the reign or the
		// activity clock.
		slog.Debug("result does not involve the king",
			slog.String("guild", m.GuildID),
			slog.String("winner", winner),
			slog.String("loser", loser))
	}
}

// CheckTimeout expires the title when the reign has been idle longer than the
// timeout. Reports whether the state changed. The activity timestamp is kept
// so the display still shows when the last game happened.
func (m *Manager) CheckTimeout(ctx context.Context, now time.Time) bool {
	s := m.State
	if !s.HasKing() || s.LastActivity == nil {
		return false
	}
	if m.reconcileHolder(ctx) {
		return true
	}
	idle := now.Sub(*s.LastActivity)
	if idle <= m.Timeout {
		return false
	}
	old := s.CurrentKingID
	s.Vacate()
	slog.Info("title expired",
		slog.String("guild", m.GuildID),
		slog.String("king", old),
		slog.Duration("idle", idle))
	telemetry.IncTitleExpiry()
	m.UnassignRole(ctx, old, "King expired after inactivity")
	return true
}

// reconcileHolder vacates the title when the holder is no longer a guild
// member. Lookup errors keep the holder in place.
func (m *Manager) reconcileHolder(ctx context.Context) bool {
	s := m.State
	if !s.HasKing() || m.Resolver == nil {
		return false
	}
	exists, err := m.Resolver.MemberExists(ctx, m.GuildID, s.CurrentKingID)
	if err != nil {
		slog.Warn("could not verify king membership",
			slog.String("guild", m.GuildID),
			slog.String("king", s.CurrentKingID),
			slog.Any("err", err))
		return false
	}
	if exists {
		return false
	}
	slog.Info("king left the guild, vacating title",
		slog.String("guild", m.GuildID),
		slog.String("king", s.CurrentKingID))
	s.Vacate()
	return true
}

// AssignRole grants the championship role, creating it first when missing.
// Failures are logged and swallowed.
func (m *Manager) AssignRole(ctx context.Context, userID, reason string) {
	if m.Roles == nil {
		return
	}
	if err := m.Roles.Ensure(ctx, m.GuildID); err != nil {
		slog.Warn("could not ensure championship role",
			slog.String("guild", m.GuildID),
			slog.Any("err", err))
		return
	}
	if err := m.Roles.Assign(ctx, m.GuildID, userID, reason); err != nil {
		slog.Warn("could not assign championship role",
			slog.String("guild", m.GuildID),
			slog.String("user", userID),
			slog.Any("err", err))
		return
	}
	telemetry.IncRoleChange("assign")
}

// UnassignRole revokes the championship role. Failures are logged and
// swallowed.
func (m *Manager) UnassignRole(ctx context.Context, userID, reason string) {
	if m.Roles == nil {
		return
	}
	if err := m.Roles.Unassign(ctx, m.GuildID, userID, reason); err != nil {
		slog.Warn("could not remove championship role",
			slog.String("guild", m.GuildID),
			slog.String("user", userID),
			slog.Any("err", err))
		return
	}
	telemetry.IncRoleChange("unassign")
}
