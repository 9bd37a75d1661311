package repository

import "database/sql"

type Repo struct {
	db            *sql.DB
	playlistLimit int
}

// Settings are the per-guild knobs exposed through /config.
type Settings struct {
	GuildID               string
	PlaylistLimit         int
	SecondsWaitAfterEmpty int
	LeaveIfNoListeners    bool
	AutoAnnounceNext      bool
}
