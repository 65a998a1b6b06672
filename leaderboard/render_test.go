package leaderboard

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

var testRenderOpts = RenderOptions{
	Header:  "🏆 Scrim Leaderboard",
	TopN:    10,
	Timeout: 72 * time.Hour,
}

func TestRenderDisplayEmpty(t *testing.T) {
	got := RenderDisplay(NewState(), testRenderOpts)
	want := "🏆 Scrim Leaderboard\n\n**Best Streaks**\nNo games recorded yet!\n"
	if got != want {
		t.Errorf("RenderDisplay() = %q, want %q", got, want)
	}
}

func TestRenderDisplayFull(t *testing.T) {
	s := NewState()
	s.Crown("111", 70, 3)
	s.RecordBestStreak("111", 5, 60)
	s.RecordBestStreak("222", 2, 90)
	ts := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	s.Touch(ts)

	got := RenderDisplay(s, testRenderOpts)
	expiry := ts.Add(72 * time.Hour)
	want := strings.Join([]string{
		"🏆 Scrim Leaderboard",
		"",
		"**Current King** 👑",
		"<@111> - 3 wins (Ego: 70)",
		"",
		"**Best Streaks**",
		"1. <@111> - 5 wins (Ego: 60)",
		"2. <@222> - 2 wins (Ego: 90)",
		"",
		fmt.Sprintf("Last game: <t:%d:R>", ts.Unix()),
		fmt.Sprintf("King expires: <t:%d:R>", expiry.Unix()),
	}, "\n")
	if got != want {
		t.Errorf("RenderDisplay() = %q, want %q", got, want)
	}
}

func TestRenderDisplayVacantWithHistory(t *testing.T) {
	s := NewState()
	s.RecordBestStreak("111", 4, 50)
	ts := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	s.Touch(ts)

	got := RenderDisplay(s, testRenderOpts)
	if strings.Contains(got, "Current King") {
		t.Errorf("vacant title rendered a king section:\n%s", got)
	}
	if !strings.Contains(got, fmt.Sprintf("Last game: <t:%d:R>", ts.Unix())) {
		t.Errorf("missing last game line:\n%s", got)
	}
	if strings.Contains(got, "King expires") {
		t.Errorf("vacant title rendered an expiry line:\n%s", got)
	}
}

func TestRenderDisplayRankingOrder(t *testing.T) {
	s := NewState()
	s.RecordBestStreak("10", 2, 40)
	s.RecordBestStreak("9", 2, 30)
	s.RecordBestStreak("3", 5, 20)
	s.RecordBestStreak("777", 1, 10)

	got := RenderDisplay(s, testRenderOpts)
	want := []string{
		"1. <@3> - 5 wins (Ego: 20)",
		"2. <@9> - 2 wins (Ego: 30)",
		"3. <@10> - 2 wins (Ego: 40)",
		"4. <@777> - 1 wins (Ego: 10)",
	}
	for _, line := range want {
		if !strings.Contains(got, line) {
			t.Errorf("missing line %q in:\n%s", line, got)
		}
	}
	if strings.Index(got, want[1]) > strings.Index(got, want[2]) {
		t.Errorf("tie not broken by ascending id:\n%s", got)
	}
}

func TestRenderDisplayTopN(t *testing.T) {
	s := NewState()
	for i := 1; i <= 15; i++ {
		s.RecordBestStreak(fmt.Sprintf("%d", i), i, i*10)
	}
	got := RenderDisplay(s, testRenderOpts)
	if strings.Contains(got, "<@5>") {
		t.Errorf("rank 11 entry rendered despite top-10 cap:\n%s", got)
	}
	if !strings.Contains(got, "10. <@6> - 6 wins") {
		t.Errorf("missing rank 10 line:\n%s", got)
	}
	if !strings.Contains(got, "1. <@15> - 15 wins") {
		t.Errorf("missing rank 1 line:\n%s", got)
	}
}

func TestRenderDisplayOmitsEgoWhenUnknown(t *testing.T) {
	s := NewState()
	s.BestStreaks["111"] = 3

	got := RenderDisplay(s, testRenderOpts)
	if !strings.Contains(got, "1. <@111> - 3 wins\n") && !strings.HasSuffix(got, "1. <@111> - 3 wins") {
		t.Errorf("entry without recorded ego rendered wrong:\n%s", got)
	}
	if strings.Contains(got, "Ego:") {
		t.Errorf("rendered an ego for a player with no recorded floor:\n%s", got)
	}
}

func TestRenderDisplayKingWithoutFloor(t *testing.T) {
	s := NewState()
	s.CurrentKingID = "111"
	s.CurrentStreak = 2

	got := RenderDisplay(s, testRenderOpts)
	if !strings.Contains(got, "<@111> - 2 wins\n") {
		t.Errorf("king without floor rendered wrong:\n%s", got)
	}
}
