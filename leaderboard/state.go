// Package leaderboard holds the championship state for one guild: the active
// reign, all-time best streaks, the dedup ledgers, and the codec that
// round-trips the state through the published payload message.
package leaderboard

import "time"

// State is the authoritative championship record. All maps are non-nil after
// NewState or UnmarshalState. Mutation happens only on the reconciliation
// loop; cross-goroutine readers take a copy via Clone.
type State struct {
	// BestStreaks maps player id to the highest streak ever achieved. Values
	// never decrease. BestStreakEgos carries the ego floor recorded with that
	// best and is written only together with BestStreaks.
	BestStreaks    map[string]int
	BestStreakEgos map[string]int

	// CurrentKingID is empty when the title is vacant. CurrentStreak is zero
	// and CurrentKingEgoFloor nil exactly when the title is vacant.
	CurrentKingID       string
	CurrentStreak       int
	CurrentKingEgoFloor *int

	// LastActivity is the timestamp of the most recent applied outcome, used
	// for title expiry. Nil until the first outcome is applied.
	LastActivity *time.Time

	// ProcessedMessages maps message id to content fingerprint.
	// ProcessedResults maps composite result key to the recorded winner id.
	ProcessedMessages map[string]string
	ProcessedResults  map[string]string
}

// NewState returns an empty state: no king, no bests, empty ledgers.
func NewState() *State {
	return &State{
		BestStreaks:       make(map[string]int),
		BestStreakEgos:    make(map[string]int),
		ProcessedMessages: make(map[string]string),
		ProcessedResults:  make(map[string]string),
	}
}

// HasKing reports whether a reign is active.
func (s *State) HasKing() bool {
	return s.CurrentKingID != ""
}

// Crown installs a new king with the given streak and a fresh ego floor,
// replacing any prior holder state.
func (s *State) Crown(playerID string, ego, streak int) {
	s.CurrentKingID = playerID
	s.CurrentStreak = streak
	floor := ego
	s.CurrentKingEgoFloor = &floor
}

// Vacate clears the reign. Best streaks and ledgers are untouched.
func (s *State) Vacate() {
	s.CurrentKingID = ""
	s.CurrentStreak = 0
	s.CurrentKingEgoFloor = nil
}

// TightenEgoFloor lowers the active reign's ego floor. The floor never rises
// within a reign.
func (s *State) TightenEgoFloor(ego int) {
	if s.CurrentKingEgoFloor == nil || ego < *s.CurrentKingEgoFloor {
		floor := ego
		s.CurrentKingEgoFloor = &floor
	}
}

// Touch records the timestamp of the most recent applied outcome, normalized
// to UTC.
func (s *State) Touch(ts time.Time) {
	t := ts.UTC()
	s.LastActivity = &t
}

// RecordBestStreak commits a streak for a player only when it strictly beats
// their stored best (or no best is stored). Both best maps are written
// together so they stay key-aligned. Reports whether a commit happened.
func (s *State) RecordBestStreak(playerID string, streak, egoFloor int) bool {
	if best, ok := s.BestStreaks[playerID]; ok && best >= streak {
		return false
	}
	s.BestStreaks[playerID] = streak
	s.BestStreakEgos[playerID] = egoFloor
	return true
}

// MarkMessageProcessed stores the content fingerprint for a message id.
func (s *State) MarkMessageProcessed(messageID, fingerprint string) {
	s.ProcessedMessages[messageID] = fingerprint
}

// MessageUnchanged reports whether the message was already processed with an
// identical fingerprint.
func (s *State) MessageUnchanged(messageID, fingerprint string) bool {
	return s.ProcessedMessages[messageID] == fingerprint
}

// Tracked reports whether a message id is present in the message ledger.
func (s *State) Tracked(messageID string) bool {
	_, ok := s.ProcessedMessages[messageID]
	return ok
}

// MarkResultProcessed records the winner for a composite result key.
func (s *State) MarkResultProcessed(key, winnerID string) {
	s.ProcessedResults[key] = winnerID
}

// ResultWinner returns the winner recorded under a composite key.
func (s *State) ResultWinner(key string) (string, bool) {
	winner, ok := s.ProcessedResults[key]
	return winner, ok
}

// ClearLedgers empties both dedup maps. Used only at the start of a full
// recalculation.
func (s *State) ClearLedgers() {
	s.ProcessedMessages = make(map[string]string)
	s.ProcessedResults = make(map[string]string)
}

// Clone returns a deep copy, used for recalculation snapshots and read-only
// callers outside the reconciliation loop.
func (s *State) Clone() *State {
	c := &State{
		BestStreaks:       make(map[string]int, len(s.BestStreaks)),
		BestStreakEgos:    make(map[string]int, len(s.BestStreakEgos)),
		CurrentKingID:     s.CurrentKingID,
		CurrentStreak:     s.CurrentStreak,
		ProcessedMessages: make(map[string]string, len(s.ProcessedMessages)),
		ProcessedResults:  make(map[string]string, len(s.ProcessedResults)),
	}
	for k, v := range s.BestStreaks {
		c.BestStreaks[k] = v
	}
	for k, v := range s.BestStreakEgos {
		c.BestStreakEgos[k] = v
	}
	for k, v := range s.ProcessedMessages {
		c.ProcessedMessages[k] = v
	}
	for k, v := range s.ProcessedResults {
		c.ProcessedResults[k] = v
	}
	if s.CurrentKingEgoFloor != nil {
		floor := *s.CurrentKingEgoFloor
		c.CurrentKingEgoFloor = &floor
	}
	if s.LastActivity != nil {
		ts := *s.LastActivity
		c.LastActivity = &ts
	}
	return c
}
