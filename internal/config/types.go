package config

import (
	"log/slog"
	"time"
)

type Config struct {
	DiscordToken          string        `env:"DISCORD_TOKEN"`
	SpotifyClientID       string        `env:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret   string        `env:"SPOTIFY_CLIENT_SECRET"`
	DataDir               string        `env:"DATA_DIR" envDefault:"./data"`
	BotStatus             string        `env:"BOT_STATUS" envDefault:"online"` // online/dnd/idle/invisible
	BotActivity           string        `env:"BOT_ACTIVITY" envDefault:"/play"`
	RegisterCommandsOnBot bool          `env:"REGISTER_COMMANDS_ON_BOT" envDefault:"false"`
	YouTubePOToken        string        `env:"YOUTUBE_PO_TOKEN"`
	YouTubeCookiesPath    string        `env:"YOUTUBE_COOKIES_PATH"`
	DefaultPlaylistLimit  int           `env:"DEFAULT_PLAYLIST_LIMIT" envDefault:"50"`
	ResolveCacheTTL       time.Duration `env:"RESOLVE_CACHE_TTL" envDefault:"10m"`
	UpdateCommand         string        `env:"UPDATE_COMMAND" envDefault:"apk update yt-dlp && apk upgrade yt-dlp"`
	LogLevel              slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
}

// SpotifyEnabled reports whether Spotify links can be expanded.
func (c *Config) SpotifyEnabled() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}
