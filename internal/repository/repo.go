package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrInvalidSettings = errors.New("invalid settings")

// NewRepo returns a repository whose freshly created guild rows start with
// the given playlist limit.
func NewRepo(db *sql.DB, defaultPlaylistLimit int) *Repo {
	if defaultPlaylistLimit <= 0 {
		defaultPlaylistLimit = 50
	}
	return &Repo{db: db, playlistLimit: defaultPlaylistLimit}
}

func (r *Repo) UpsertSettings(ctx context.Context, guild string) (*Settings, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings(guild_id, playlist_limit) VALUES (?, ?)`,
		guild, r.playlistLimit,
	); err != nil {
		return nil, fmt.Errorf("insert settings: %w", err)
	}
	return r.GetSettings(ctx, guild)
}

func (r *Repo) GetSettings(ctx context.Context, guild string) (*Settings, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT guild_id, playlist_limit, seconds_wait_after_empty,
	       leave_if_no_listeners, auto_announce_next_song
	FROM settings WHERE guild_id = ?`, guild)

	var s Settings
	var leave, announce int
	if err := row.Scan(
		&s.GuildID,
		&s.PlaylistLimit,
		&s.SecondsWaitAfterEmpty,
		&leave,
		&announce,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}

	s.LeaveIfNoListeners = leave != 0
	s.AutoAnnounceNext = announce != 0
	return &s, nil
}

func (r *Repo) UpdateSettings(ctx context.Context, s *Settings) error {
	if s.PlaylistLimit <= 0 || s.SecondsWaitAfterEmpty < 0 {
		return fmt.Errorf("%w: limit %d, wait %d", ErrInvalidSettings, s.PlaylistLimit, s.SecondsWaitAfterEmpty)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE settings SET
		  playlist_limit=?,
		  seconds_wait_after_empty=?,
		  leave_if_no_listeners=?,
		  auto_announce_next_song=?,
		  updated_at=unixepoch()
		WHERE guild_id=?`,
		s.PlaylistLimit, s.SecondsWaitAfterEmpty, boolToInt(s.LeaveIfNoListeners),
		boolToInt(s.AutoAnnounceNext), s.GuildID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
