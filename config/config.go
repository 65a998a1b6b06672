// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup; the only
// hard requirement is the bot token, checked by Validate.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Discord
	DiscordToken string   `env:"DISCORD_TOKEN"`
	GuildIDs     []string `env:"DISCORD_GUILD_IDS" envSeparator:","`

	// Channels and role, matched by name per guild
	ResultsChannel     string `env:"RESULTS_CHANNEL" envDefault:"scrimmage-results"`
	LeaderboardChannel string `env:"LEADERBOARD_CHANNEL" envDefault:"scrimmer-of-the-hill"`
	RoleName           string `env:"KING_ROLE_NAME" envDefault:"Scrimmer of The Hill"`

	// Published message headers, also used to find the messages again on restart
	DisplayHeader string `env:"DISPLAY_HEADER" envDefault:"🏆 Scrim Leaderboard"`
	PayloadHeader string `env:"STATE_HEADER" envDefault:"📊 Bot State"`

	// Tracker tuning
	TopN          int           `env:"LEADERBOARD_TOP_N" envDefault:"10"`
	TitleTimeout  time.Duration `env:"TITLE_TIMEOUT" envDefault:"72h"`
	RecentWindow  int           `env:"RECENT_WINDOW" envDefault:"5"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`

	// HTTP
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
}

// Load reads environment variables and applies defaults. Missing optional
// variables fall back to the defaults above; use Validate before connecting.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields the bot cannot run without.
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("missing discord env: require DISCORD_TOKEN")
	}
	if c.ResultsChannel == "" || c.LeaderboardChannel == "" {
		return fmt.Errorf("RESULTS_CHANNEL and LEADERBOARD_CHANNEL must not be empty")
	}
	if c.TopN <= 0 {
		return fmt.Errorf("LEADERBOARD_TOP_N must be positive, got %d", c.TopN)
	}
	if c.TitleTimeout <= 0 {
		return fmt.Errorf("TITLE_TIMEOUT must be positive, got %v", c.TitleTimeout)
	}
	if c.RecentWindow <= 0 {
		return fmt.Errorf("RECENT_WINDOW must be positive, got %d", c.RecentWindow)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %v", c.SweepInterval)
	}
	return nil
}

// GuildAllowed reports whether the bot should track a guild. An empty
// allow-list admits every guild the bot is a member of.
func (c *Config) GuildAllowed(guildID string) bool {
	if len(c.GuildIDs) == 0 {
		return true
	}
	for _, id := range c.GuildIDs {
		if id == guildID {
			return true
		}
	}
	return false
}
