package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DiscordToken == "" {
		return nil, ErrConfig("DISCORD_TOKEN required")
	}
	if cfg.DefaultPlaylistLimit <= 0 {
		return nil, ErrConfig("DEFAULT_PLAYLIST_LIMIT must be positive")
	}
	if (cfg.SpotifyClientID == "") != (cfg.SpotifyClientSecret == "") {
		return nil, ErrConfig("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set together")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return cfg, nil
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
