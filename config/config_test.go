package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets vars for the duration of a test. t.Setenv registers the
// restore; the explicit Unsetenv removes the value so envDefault applies.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		if err := os.Unsetenv(k); err != nil {
			t.Fatalf("unset %s: %v", k, err)
		}
	}
}

var allKeys = []string{
	"DISCORD_TOKEN", "DISCORD_GUILD_IDS",
	"RESULTS_CHANNEL", "LEADERBOARD_CHANNEL", "KING_ROLE_NAME",
	"DISPLAY_HEADER", "STATE_HEADER",
	"LEADERBOARD_TOP_N", "TITLE_TIMEOUT", "RECENT_WINDOW", "SWEEP_INTERVAL",
	"HTTP_ADDR",
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, allKeys...)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ResultsChannel != "scrimmage-results" {
		t.Errorf("ResultsChannel = %q", cfg.ResultsChannel)
	}
	if cfg.LeaderboardChannel != "scrimmer-of-the-hill" {
		t.Errorf("LeaderboardChannel = %q", cfg.LeaderboardChannel)
	}
	if cfg.RoleName != "Scrimmer of The Hill" {
		t.Errorf("RoleName = %q", cfg.RoleName)
	}
	if cfg.DisplayHeader != "🏆 Scrim Leaderboard" {
		t.Errorf("DisplayHeader = %q", cfg.DisplayHeader)
	}
	if cfg.PayloadHeader != "📊 Bot State" {
		t.Errorf("PayloadHeader = %q", cfg.PayloadHeader)
	}
	if cfg.TopN != 10 {
		t.Errorf("TopN = %d, want 10", cfg.TopN)
	}
	if cfg.TitleTimeout != 72*time.Hour {
		t.Errorf("TitleTimeout = %v, want 72h", cfg.TitleTimeout)
	}
	if cfg.RecentWindow != 5 {
		t.Errorf("RecentWindow = %d, want 5", cfg.RecentWindow)
	}
	if cfg.SweepInterval != time.Hour {
		t.Errorf("SweepInterval = %v, want 1h", cfg.SweepInterval)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if len(cfg.GuildIDs) != 0 {
		t.Errorf("GuildIDs = %v, want empty", cfg.GuildIDs)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t, allKeys...)
	t.Setenv("DISCORD_TOKEN", "tok-123")
	t.Setenv("DISCORD_GUILD_IDS", "g1,g2,g3")
	t.Setenv("RESULTS_CHANNEL", "match-reports")
	t.Setenv("LEADERBOARD_CHANNEL", "hill")
	t.Setenv("LEADERBOARD_TOP_N", "25")
	t.Setenv("TITLE_TIMEOUT", "48h")
	t.Setenv("RECENT_WINDOW", "8")
	t.Setenv("SWEEP_INTERVAL", "15m")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DiscordToken != "tok-123" {
		t.Errorf("DiscordToken = %q", cfg.DiscordToken)
	}
	if len(cfg.GuildIDs) != 3 || cfg.GuildIDs[0] != "g1" || cfg.GuildIDs[2] != "g3" {
		t.Errorf("GuildIDs = %v, want [g1 g2 g3]", cfg.GuildIDs)
	}
	if cfg.ResultsChannel != "match-reports" {
		t.Errorf("ResultsChannel = %q", cfg.ResultsChannel)
	}
	if cfg.LeaderboardChannel != "hill" {
		t.Errorf("LeaderboardChannel = %q", cfg.LeaderboardChannel)
	}
	if cfg.TopN != 25 {
		t.Errorf("TopN = %d", cfg.TopN)
	}
	if cfg.TitleTimeout != 48*time.Hour {
		t.Errorf("TitleTimeout = %v", cfg.TitleTimeout)
	}
	if cfg.RecentWindow != 8 {
		t.Errorf("RecentWindow = %d", cfg.RecentWindow)
	}
	if cfg.SweepInterval != 15*time.Minute {
		t.Errorf("SweepInterval = %v", cfg.SweepInterval)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	clearEnv(t, allKeys...)
	t.Setenv("TITLE_TIMEOUT", "three days")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable TITLE_TIMEOUT")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DiscordToken:       "tok",
			ResultsChannel:     "scrimmage-results",
			LeaderboardChannel: "scrimmer-of-the-hill",
			TopN:               10,
			TitleTimeout:       72 * time.Hour,
			RecentWindow:       5,
			SweepInterval:      time.Hour,
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"missing token", func(c *Config) { c.DiscordToken = "" }, "DISCORD_TOKEN"},
		{"empty results channel", func(c *Config) { c.ResultsChannel = "" }, "RESULTS_CHANNEL"},
		{"empty leaderboard channel", func(c *Config) { c.LeaderboardChannel = "" }, "LEADERBOARD_CHANNEL"},
		{"zero top n", func(c *Config) { c.TopN = 0 }, "LEADERBOARD_TOP_N"},
		{"negative timeout", func(c *Config) { c.TitleTimeout = -time.Hour }, "TITLE_TIMEOUT"},
		{"zero window", func(c *Config) { c.RecentWindow = 0 }, "RECENT_WINDOW"},
		{"zero sweep", func(c *Config) { c.SweepInterval = 0 }, "SWEEP_INTERVAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %s", err, tt.wantSub)
			}
		})
	}
}

func TestGuildAllowed(t *testing.T) {
	open := &Config{}
	if !open.GuildAllowed("anything") {
		t.Error("empty allow-list should admit all guilds")
	}

	scoped := &Config{GuildIDs: []string{"g1", "g2"}}
	if !scoped.GuildAllowed("g1") {
		t.Error("listed guild rejected")
	}
	if scoped.GuildAllowed("g3") {
		t.Error("unlisted guild admitted")
	}
}
