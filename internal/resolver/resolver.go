package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sonroyaalmerol/poorjimmy/internal/player"
	"github.com/sonroyaalmerol/poorjimmy/internal/spotify"
	"github.com/sonroyaalmerol/poorjimmy/internal/stream"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotAURL         = errors.New("that does not look like a link")
	ErrNoResults       = errors.New("nothing found")
	ErrIsCollection    = errors.New("that link is a collection, use /playlist for it")
	ErrSpotifyDisabled = errors.New("spotify links are not enabled on this bot")
)

// spotifyWorkers bounds concurrent YouTube lookups for Spotify collections.
const spotifyWorkers = 4

// Media is the yt-dlp side of resolution.
type Media interface {
	GetInfo(ctx context.Context, url string) (stream.Info, error)
	Playlist(ctx context.Context, url string, limit int) ([]stream.Info, error)
	Search(ctx context.Context, query string, n int) ([]stream.Info, error)
}

// Catalog expands Spotify links into searchable tracks.
type Catalog interface {
	Track(ctx context.Context, id string) (spotify.Track, error)
	Album(ctx context.Context, id string, limit int) ([]spotify.Track, spotify.PlaylistMeta, error)
	Playlist(ctx context.Context, id string, limit int) ([]spotify.Track, spotify.PlaylistMeta, error)
	ArtistTop(ctx context.Context, id string, limit int) ([]spotify.Track, spotify.PlaylistMeta, error)
}

// Playlist is the best-effort result of expanding a collection link.
type Playlist struct {
	Title  string
	Source string
	Tracks []player.Track
	Failed int
}

// Resolver turns user requests into tracks. It never touches a session.
type Resolver struct {
	media   Media
	catalog Catalog
	cache   *Cache[player.Track]
}

// New builds a resolver. catalog may be nil when Spotify is not configured.
func New(media Media, catalog Catalog, cacheTTL time.Duration) *Resolver {
	return &Resolver{media: media, catalog: catalog, cache: NewCache[player.Track](cacheTTL)}
}

// IsURL reports whether s should be treated as a link rather than a title.
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "spotify:")
}

// ResolveByTitle plays the top YouTube result for title. Links are accepted
// too, so autocomplete choices that carry a Spotify URI work.
func (r *Resolver) ResolveByTitle(ctx context.Context, title string) (player.Track, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return player.Track{}, failed(ErrNoResults)
	}
	if IsURL(title) {
		return r.ResolveByURL(ctx, title)
	}
	key := "title:" + strings.ToLower(title)
	if t, ok := r.cached(key); ok {
		return t, nil
	}
	t, err := r.searchOne(ctx, title)
	if err != nil {
		return player.Track{}, failed(err)
	}
	r.cache.Set(key, t)
	return t, nil
}

// ResolveByURL resolves a single media link.
func (r *Resolver) ResolveByURL(ctx context.Context, raw string) (player.Track, error) {
	raw = strings.TrimSpace(raw)
	if !IsURL(raw) {
		return player.Track{}, failed(ErrNotAURL)
	}
	key := "url:" + raw
	if t, ok := r.cached(key); ok {
		return t, nil
	}

	var (
		t   player.Track
		err error
	)
	if spotify.IsLink(raw) {
		t, err = r.spotifyTrack(ctx, raw)
	} else {
		var info stream.Info
		info, err = r.media.GetInfo(ctx, raw)
		if err == nil {
			t = fromInfo(info)
			if t.Source == "" {
				t.Source = raw
			}
		}
	}
	if err != nil {
		return player.Track{}, failed(err)
	}
	r.cache.Set(key, t)
	return t, nil
}

// ResolvePlaylist expands a YouTube or Spotify collection into at most limit
// tracks. Listing the collection must succeed; entries that cannot be
// resolved are skipped and counted in Failed.
func (r *Resolver) ResolvePlaylist(ctx context.Context, raw string, limit int) (Playlist, error) {
	raw = strings.TrimSpace(raw)
	if !IsURL(raw) {
		return Playlist{}, failed(ErrNotAURL)
	}

	var (
		pl  Playlist
		err error
	)
	if spotify.IsLink(raw) {
		pl, err = r.spotifyCollection(ctx, raw, limit)
	} else {
		pl, err = r.youtubeCollection(ctx, raw, limit)
	}
	if err != nil {
		return Playlist{}, failed(err)
	}
	if len(pl.Tracks) == 0 {
		return Playlist{}, failed(fmt.Errorf("%w: none of %d entries could be resolved", ErrNoResults, pl.Failed))
	}
	slog.Debug("playlist resolved", "url", raw, "tracks", len(pl.Tracks), "failed", pl.Failed)
	return pl, nil
}

// Search returns up to n candidate tracks for query.
func (r *Resolver) Search(ctx context.Context, query string, n int) ([]player.Track, error) {
	infos, err := r.media.Search(ctx, strings.TrimSpace(query), n)
	if err != nil {
		return nil, failed(err)
	}
	out := make([]player.Track, 0, len(infos))
	for _, info := range infos {
		if t := fromInfo(info); t.Source != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, failed(ErrNoResults)
	}
	return out, nil
}

func (r *Resolver) cached(key string) (player.Track, bool) {
	t, ok := r.cache.Get(key)
	if !ok {
		return player.Track{}, false
	}
	// every queued item gets its own identity
	t.ID = uuid.NewString()
	return t, true
}

func (r *Resolver) searchOne(ctx context.Context, query string) (player.Track, error) {
	infos, err := r.media.Search(ctx, query, 1)
	if err != nil {
		return player.Track{}, err
	}
	for _, info := range infos {
		if t := fromInfo(info); t.Source != "" {
			return t, nil
		}
	}
	return player.Track{}, fmt.Errorf("%w for %q", ErrNoResults, query)
}

func (r *Resolver) spotifyRef(raw string) (spotify.Ref, error) {
	if r.catalog == nil {
		return spotify.Ref{}, ErrSpotifyDisabled
	}
	return spotify.ParseRef(raw)
}

func (r *Resolver) spotifyTrack(ctx context.Context, raw string) (player.Track, error) {
	ref, err := r.spotifyRef(raw)
	if err != nil {
		return player.Track{}, err
	}
	if ref.Kind != spotify.KindTrack {
		return player.Track{}, ErrIsCollection
	}
	st, err := r.catalog.Track(ctx, ref.ID)
	if err != nil {
		return player.Track{}, err
	}
	return r.fromSpotify(ctx, st)
}

func (r *Resolver) fromSpotify(ctx context.Context, st spotify.Track) (player.Track, error) {
	t, err := r.searchOne(ctx, st.Query())
	if err != nil {
		return player.Track{}, err
	}
	t.Title = st.Name
	if st.Artist != "" {
		t.Artist = st.Artist
	}
	if t.Length == 0 {
		t.Length = st.Duration
	}
	return t, nil
}

func (r *Resolver) spotifyCollection(ctx context.Context, raw string, limit int) (Playlist, error) {
	ref, err := r.spotifyRef(raw)
	if err != nil {
		return Playlist{}, err
	}

	var (
		items []spotify.Track
		meta  spotify.PlaylistMeta
	)
	switch ref.Kind {
	case spotify.KindAlbum:
		items, meta, err = r.catalog.Album(ctx, ref.ID, limit)
	case spotify.KindPlaylist:
		items, meta, err = r.catalog.Playlist(ctx, ref.ID, limit)
	case spotify.KindArtist:
		items, meta, err = r.catalog.ArtistTop(ctx, ref.ID, limit)
	case spotify.KindTrack:
		var st spotify.Track
		st, err = r.catalog.Track(ctx, ref.ID)
		items = []spotify.Track{st}
	}
	if err != nil {
		return Playlist{}, err
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	resolved := make([]*player.Track, len(items))
	var g errgroup.Group
	g.SetLimit(spotifyWorkers)
	for i, st := range items {
		g.Go(func() error {
			t, err := r.fromSpotify(ctx, st)
			if err != nil {
				slog.Debug("skipping spotify entry", "query", st.Query(), "err", err)
				return nil
			}
			t.Playlist = meta.Title
			resolved[i] = &t
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Playlist{}, err
	}

	pl := Playlist{Title: meta.Title, Source: meta.Source}
	for _, t := range resolved {
		if t == nil {
			pl.Failed++
			continue
		}
		pl.Tracks = append(pl.Tracks, *t)
	}
	return pl, nil
}

func (r *Resolver) youtubeCollection(ctx context.Context, raw string, limit int) (Playlist, error) {
	entries, err := r.media.Playlist(ctx, raw, limit)
	if err != nil {
		return Playlist{}, err
	}
	pl := Playlist{Source: raw}
	for _, info := range entries {
		if limit > 0 && len(pl.Tracks)+pl.Failed >= limit {
			break
		}
		t := fromInfo(info)
		if t.Source == "" {
			pl.Failed++
			continue
		}
		pl.Tracks = append(pl.Tracks, t)
	}
	return pl, nil
}

func fromInfo(info stream.Info) player.Track {
	t := player.Track{
		ID:        uuid.NewString(),
		Source:    info.Link(),
		Title:     info.Title,
		Artist:    info.Uploader,
		Length:    int(info.Duration),
		IsLive:    info.IsLive,
		Thumbnail: info.Thumbnail,
	}
	if t.Thumbnail == "" && len(info.ID) == 11 {
		t.Thumbnail = "https://i.ytimg.com/vi/" + info.ID + "/hqdefault.jpg"
	}
	if t.Title == "" {
		t.Title = t.Source
	}
	return t
}

func failed(err error) error {
	if errors.Is(err, player.ErrResolutionFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", player.ErrResolutionFailed, err)
}
