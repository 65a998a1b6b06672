package leaderboard

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func populatedState() *State {
	s := NewState()
	s.Crown("111", 70, 3)
	s.TightenEgoFloor(55)
	s.Touch(time.Date(2026, 8, 20, 12, 30, 45, 123456000, time.UTC))
	s.RecordBestStreak("111", 3, 55)
	s.RecordBestStreak("222", 1, 90)
	s.MarkMessageProcessed("1000", "abc123")
	s.MarkMessageProcessed("1001", "def456")
	s.MarkResultProcessed("1000:111:222:1755693045", "111")
	return s
}

func TestStateRoundTrip(t *testing.T) {
	want := populatedState()
	b, err := MarshalState(want)
	if err != nil {
		t.Fatalf("MarshalState: %v", err)
	}
	got, err := UnmarshalState(b)
	if err != nil {
		t.Fatalf("UnmarshalState: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStateRoundTripEmpty(t *testing.T) {
	want := NewState()
	b, err := MarshalState(want)
	if err != nil {
		t.Fatalf("MarshalState: %v", err)
	}
	got, err := UnmarshalState(b)
	if err != nil {
		t.Fatalf("UnmarshalState: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if got.BestStreaks == nil || got.ProcessedResults == nil {
		t.Errorf("unmarshal produced nil maps")
	}
}

func TestMarshalZeroValueState(t *testing.T) {
	b, err := MarshalState(&State{})
	if err != nil {
		t.Fatalf("MarshalState on zero value: %v", err)
	}
	got, err := UnmarshalState(b)
	if err != nil {
		t.Fatalf("UnmarshalState: %v", err)
	}
	if diff := cmp.Diff(NewState(), got); diff != "" {
		t.Errorf("zero-value state did not decode as empty (-want +got):\n%s", diff)
	}
}

func TestUnmarshalMinimalPayload(t *testing.T) {
	got, err := UnmarshalState([]byte(`{}`))
	if err != nil {
		t.Fatalf("UnmarshalState({}): %v", err)
	}
	if diff := cmp.Diff(NewState(), got); diff != "" {
		t.Errorf("minimal payload mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalNumericIDs(t *testing.T) {
	raw := `{"current_king_id": 12345678901234567890, "processed_results": {"1000:111:222:1755693045": 111}}`
	got, err := UnmarshalState([]byte(raw))
	if err != nil {
		t.Fatalf("UnmarshalState: %v", err)
	}
	if got.CurrentKingID != "12345678901234567890" {
		t.Errorf("CurrentKingID = %q, want 12345678901234567890", got.CurrentKingID)
	}
	winner, ok := got.ResultWinner("1000:111:222:1755693045")
	if !ok || winner != "111" {
		t.Errorf("ResultWinner = %q, %v; want 111, true", winner, ok)
	}
}

func TestUnmarshalNaiveTimestamp(t *testing.T) {
	raw := `{"last_activity": "2026-08-20T12:30:45.123456"}`
	got, err := UnmarshalState([]byte(raw))
	if err != nil {
		t.Fatalf("UnmarshalState: %v", err)
	}
	if got.LastActivity == nil {
		t.Fatal("LastActivity not set")
	}
	want := time.Date(2026, 8, 20, 12, 30, 45, 123456000, time.UTC)
	if !got.LastActivity.Equal(want) {
		t.Errorf("LastActivity = %v, want %v", got.LastActivity, want)
	}
	if got.LastActivity.Location() != time.UTC {
		t.Errorf("LastActivity location = %v, want UTC", got.LastActivity.Location())
	}
}

func TestUnmarshalOffsetTimestamp(t *testing.T) {
	raw := `{"last_activity": "2026-08-20T14:30:45+02:00"}`
	got, err := UnmarshalState([]byte(raw))
	if err != nil {
		t.Fatalf("UnmarshalState: %v", err)
	}
	want := time.Date(2026, 8, 20, 12, 30, 45, 0, time.UTC)
	if got.LastActivity == nil || !got.LastActivity.Equal(want) {
		t.Errorf("LastActivity = %v, want %v", got.LastActivity, want)
	}
}

func TestUnmarshalBadTimestamp(t *testing.T) {
	if _, err := UnmarshalState([]byte(`{"last_activity": "yesterday"}`)); err == nil {
		t.Error("UnmarshalState accepted unparseable timestamp")
	}
}

func TestUnmarshalBadJSON(t *testing.T) {
	if _, err := UnmarshalState([]byte(`{`)); err == nil {
		t.Error("UnmarshalState accepted truncated JSON")
	}
}

func TestRenderParsePayloadRoundTrip(t *testing.T) {
	want := populatedState()
	content, err := RenderPayload(want, "📊 Bot State")
	if err != nil {
		t.Fatalf("RenderPayload: %v", err)
	}
	if !strings.HasPrefix(content, "📊 Bot State\n\n") {
		t.Errorf("payload missing header prefix: %q", content)
	}
	if !strings.Contains(content, "||```text\n") || !strings.HasSuffix(content, "\n```||") {
		t.Errorf("payload missing spoiler fence: %q", content)
	}
	got, err := ParsePayload(content)
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePayloadNoBlock(t *testing.T) {
	_, err := ParsePayload("📊 Bot State\n\njust some chatter")
	if !errors.Is(err, ErrNoPayload) {
		t.Errorf("ParsePayload error = %v, want ErrNoPayload", err)
	}
}

func TestParsePayloadCorruptBlock(t *testing.T) {
	content := "📊 Bot State\n\n||```text\n{not json at all\n```||"
	_, err := ParsePayload(content)
	if err == nil {
		t.Fatal("ParsePayload accepted corrupt block")
	}
	if errors.Is(err, ErrNoPayload) {
		t.Errorf("corrupt block reported as ErrNoPayload")
	}
}

func TestEgoFloorString(t *testing.T) {
	if got := EgoFloorString(nil); got != "none" {
		t.Errorf("EgoFloorString(nil) = %q, want none", got)
	}
	floor := 42
	if got := EgoFloorString(&floor); got != "42" {
		t.Errorf("EgoFloorString(42) = %q, want 42", got)
	}
}
