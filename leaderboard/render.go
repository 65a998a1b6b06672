package leaderboard

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// RenderOptions controls the human display rendering.
type RenderOptions struct {
	// Header is the first line of the display message and the prefix used to
	// find it again on recovery.
	Header string
	// TopN caps the ranked best-streak list.
	TopN int
	// Timeout is the title expiry duration, used for the expiry annotation.
	Timeout time.Duration
}

// RenderDisplay formats the state as the human leaderboard message: the
// current reign, a ranked top-N of all-time best streaks, and relative-time
// annotations for the last game and the title expiry.
func RenderDisplay(s *State, opts RenderOptions) string {
	lines := []string{opts.Header, ""}

	if s.HasKing() && s.CurrentStreak > 0 {
		lines = append(lines, "**Current King** 👑")
		ego := ""
		if s.CurrentKingEgoFloor != nil {
			ego = fmt.Sprintf(" (Ego: %d)", *s.CurrentKingEgoFloor)
		}
		lines = append(lines, fmt.Sprintf("<@%s> - %d wins%s", s.CurrentKingID, s.CurrentStreak, ego), "")
	}

	lines = append(lines, "**Best Streaks**")
	ranked := rankBestStreaks(s, opts.TopN)
	if len(ranked) == 0 {
		lines = append(lines, "No games recorded yet!")
	} else {
		for i, e := range ranked {
			ego := ""
			if floor, ok := s.BestStreakEgos[e.playerID]; ok {
				ego = fmt.Sprintf(" (Ego: %d)", floor)
			}
			lines = append(lines, fmt.Sprintf("%d. <@%s> - %d wins%s", i+1, e.playerID, e.streak, ego))
		}
	}

	lines = append(lines, "")
	if s.LastActivity != nil {
		lines = append(lines, fmt.Sprintf("Last game: <t:%d:R>", s.LastActivity.Unix()))
		if s.HasKing() {
			expiry := s.LastActivity.Add(opts.Timeout)
			lines = append(lines, fmt.Sprintf("King expires: <t:%d:R>", expiry.Unix()))
		}
	}

	return strings.Join(lines, "\n")
}

type rankedEntry struct {
	playerID string
	streak   int
}

// rankBestStreaks orders players by best streak descending, breaking ties by
// ascending numeric id so the rendered output is deterministic.
func rankBestStreaks(s *State, topN int) []rankedEntry {
	entries := make([]rankedEntry, 0, len(s.BestStreaks))
	for id, streak := range s.BestStreaks {
		entries = append(entries, rankedEntry{playerID: id, streak: streak})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].streak != entries[j].streak {
			return entries[i].streak > entries[j].streak
		}
		a, b := entries[i].playerID, entries[j].playerID
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}
