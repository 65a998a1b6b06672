package leaderboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrNoPayload is returned by ParsePayload when the content carries no state
// block at all, as opposed to a block that fails to decode.
var ErrNoPayload = errors.New("no state payload in message")

// payloadPattern extracts the compact JSON block from the spoiler-wrapped code
// fence of a payload message.
var payloadPattern = regexp.MustCompile("(?s)\\|\\|```text\\n(.+?)\\n```\\|\\|")

// naiveTimestampLayout parses timestamps written without a zone offset, which
// are normalized to UTC on read.
const naiveTimestampLayout = "2006-01-02T15:04:05"

// flexID decodes a player id that older payloads may have written as a JSON
// number instead of a string.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// stateDTO is the wire form of State inside the payload message. Maps are
// string-keyed and the activity timestamp travels as ISO-8601 text.
type stateDTO struct {
	BestStreaks         map[string]int    `json:"best_streaks"`
	BestStreakEgos      map[string]int    `json:"best_streak_egos"`
	CurrentKingID       *flexID           `json:"current_king_id"`
	CurrentStreak       int               `json:"current_streak"`
	CurrentKingEgoFloor *int              `json:"current_king_ego_floor"`
	LastActivity        *string           `json:"last_activity"`
	ProcessedMessages   map[string]string `json:"processed_messages"`
	ProcessedResults    map[string]flexID `json:"processed_results"`
}

// MarshalState serializes the full state as compact JSON. Every field in the
// aggregate is present in the output so the round trip is lossless.
func MarshalState(s *State) ([]byte, error) {
	dto := stateDTO{
		BestStreaks:       s.BestStreaks,
		BestStreakEgos:    s.BestStreakEgos,
		CurrentStreak:     s.CurrentStreak,
		ProcessedMessages: s.ProcessedMessages,
		ProcessedResults:  make(map[string]flexID, len(s.ProcessedResults)),
	}
	if dto.BestStreaks == nil {
		dto.BestStreaks = map[string]int{}
	}
	if dto.BestStreakEgos == nil {
		dto.BestStreakEgos = map[string]int{}
	}
	if dto.ProcessedMessages == nil {
		dto.ProcessedMessages = map[string]string{}
	}
	for k, v := range s.ProcessedResults {
		dto.ProcessedResults[k] = flexID(v)
	}
	if s.CurrentKingID != "" {
		id := flexID(s.CurrentKingID)
		dto.CurrentKingID = &id
	}
	if s.CurrentKingEgoFloor != nil {
		floor := *s.CurrentKingEgoFloor
		dto.CurrentKingEgoFloor = &floor
	}
	if s.LastActivity != nil {
		ts := s.LastActivity.UTC().Format(time.RFC3339Nano)
		dto.LastActivity = &ts
	}
	b, err := json.Marshal(dto)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return b, nil
}

// UnmarshalState reconstructs a State from payload JSON. Absent optional
// fields default to empty or nil rather than failing, and timestamps without
// an explicit offset are treated as UTC.
func UnmarshalState(b []byte) (*State, error) {
	var dto stateDTO
	if err := json.Unmarshal(b, &dto); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	s := NewState()
	for k, v := range dto.BestStreaks {
		s.BestStreaks[k] = v
	}
	for k, v := range dto.BestStreakEgos {
		s.BestStreakEgos[k] = v
	}
	for k, v := range dto.ProcessedMessages {
		s.ProcessedMessages[k] = v
	}
	for k, v := range dto.ProcessedResults {
		s.ProcessedResults[k] = string(v)
	}
	if dto.CurrentKingID != nil {
		s.CurrentKingID = string(*dto.CurrentKingID)
	}
	s.CurrentStreak = dto.CurrentStreak
	if dto.CurrentKingEgoFloor != nil {
		floor := *dto.CurrentKingEgoFloor
		s.CurrentKingEgoFloor = &floor
	}
	if dto.LastActivity != nil && *dto.LastActivity != "" {
		ts, err := parseTimestamp(*dto.LastActivity)
		if err != nil {
			return nil, fmt.Errorf("last_activity: %w", err)
		}
		s.LastActivity = &ts
	}
	return s, nil
}

// parseTimestamp accepts RFC 3339 timestamps and offset-less ISO-8601 ones,
// normalizing both to UTC.
func parseTimestamp(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(naiveTimestampLayout, v); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", v)
}

// RenderPayload wraps the serialized state in the recovery message format: the
// header, then the JSON inside a spoiler-hidden code fence.
func RenderPayload(s *State, header string) (string, error) {
	b, err := MarshalState(s)
	if err != nil {
		return "", err
	}
	return header + "\n\n||```text\n" + string(b) + "\n```||", nil
}

// ParsePayload extracts and decodes the state block from a payload message.
// Returns ErrNoPayload when no block is present and a decode error when the
// block exists but is corrupt.
func ParsePayload(content string) (*State, error) {
	m := payloadPattern.FindStringSubmatch(content)
	if m == nil {
		return nil, ErrNoPayload
	}
	s, err := UnmarshalState([]byte(m[1]))
	if err != nil {
		return nil, fmt.Errorf("payload block: %w", err)
	}
	return s, nil
}

// EgoFloorString formats an optional ego floor for logs and status output.
func EgoFloorString(floor *int) string {
	if floor == nil {
		return "none"
	}
	return strconv.Itoa(*floor)
}
