package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// Kinds of Spotify links the bot understands.
const (
	KindTrack    = "track"
	KindAlbum    = "album"
	KindPlaylist = "playlist"
	KindArtist   = "artist"
)

var ErrNotSpotify = errors.New("not a spotify link")

// Track is what a Spotify item contributes to a YouTube search.
type Track struct {
	Name     string
	Artist   string
	Duration int
}

// Query is the search text used to find the track on YouTube.
func (t Track) Query() string {
	if t.Artist == "" {
		return t.Name
	}
	return t.Name + " " + t.Artist
}

type PlaylistMeta struct {
	Title  string
	Source string
}

// Ref points at one Spotify object.
type Ref struct {
	Kind string
	ID   string
}

// IsLink reports whether raw looks like a Spotify URL or URI.
func IsLink(raw string) bool {
	return strings.HasPrefix(raw, "spotify:") || strings.Contains(raw, "open.spotify.com/")
}

// ParseRef accepts open.spotify.com URLs (with or without an intl- prefix) and
// spotify: URIs.
func ParseRef(raw string) (Ref, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "spotify:") {
		parts := strings.Split(raw, ":")
		if len(parts) != 3 || parts[2] == "" {
			return Ref{}, fmt.Errorf("invalid spotify URI %q", raw)
		}
		return checkKind(parts[1], parts[2])
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Ref{}, err
	}
	if u.Host != "open.spotify.com" && u.Host != "www.open.spotify.com" {
		return Ref{}, ErrNotSpotify
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) > 0 && strings.HasPrefix(parts[0], "intl-") {
		parts = parts[1:]
	}
	if len(parts) < 2 || parts[1] == "" {
		return Ref{}, fmt.Errorf("invalid spotify URL path %q", u.Path)
	}
	return checkKind(parts[0], parts[1])
}

func checkKind(kind, id string) (Ref, error) {
	switch kind {
	case KindTrack, KindAlbum, KindPlaylist, KindArtist:
		return Ref{Kind: kind, ID: id}, nil
	}
	return Ref{}, fmt.Errorf("unsupported spotify type %q", kind)
}

type Client struct {
	raw    *spotify.Client
	market string
}

func NewClientCredentials(clientID, clientSecret string) *Client {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	httpClient := cfg.Client(context.Background())
	return &Client{
		raw:    spotify.New(httpClient, spotify.WithRetry(true)),
		market: "US",
	}
}

func fromSimple(t spotify.SimpleTrack) Track {
	out := Track{Name: t.Name, Duration: int(t.Duration / 1000)}
	if len(t.Artists) > 0 {
		out.Artist = t.Artists[0].Name
	}
	return out
}

func (c *Client) Track(ctx context.Context, id string) (Track, error) {
	t, err := c.raw.GetTrack(ctx, spotify.ID(id))
	if err != nil {
		return Track{}, fmt.Errorf("spotify track %s: %w", id, err)
	}
	return fromSimple(t.SimpleTrack), nil
}

func (c *Client) Album(ctx context.Context, id string, limit int) ([]Track, PlaylistMeta, error) {
	alb, err := c.raw.GetAlbum(ctx, spotify.ID(id))
	if err != nil {
		return nil, PlaylistMeta{}, fmt.Errorf("spotify album %s: %w", id, err)
	}
	page, err := c.raw.GetAlbumTracks(ctx, spotify.ID(id))
	if err != nil {
		return nil, PlaylistMeta{}, fmt.Errorf("spotify album tracks %s: %w", id, err)
	}
	var out []Track
	add := func(items []spotify.SimpleTrack) {
		for _, t := range items {
			if limit > 0 && len(out) >= limit {
				return
			}
			out = append(out, fromSimple(t))
		}
	}
	add(page.Tracks)
	for page.Next != "" && (limit <= 0 || len(out) < limit) {
		if err := c.raw.NextPage(ctx, page); err != nil {
			break
		}
		add(page.Tracks)
	}
	return out, PlaylistMeta{Title: alb.Name, Source: alb.ExternalURLs["spotify"]}, nil
}

func (c *Client) Playlist(ctx context.Context, id string, limit int) ([]Track, PlaylistMeta, error) {
	pl, err := c.raw.GetPlaylist(ctx, spotify.ID(id))
	if err != nil {
		return nil, PlaylistMeta{}, fmt.Errorf("spotify playlist %s: %w", id, err)
	}
	page, err := c.raw.GetPlaylistItems(ctx, spotify.ID(id))
	if err != nil {
		return nil, PlaylistMeta{}, fmt.Errorf("spotify playlist items %s: %w", id, err)
	}
	var out []Track
	add := func(items []spotify.PlaylistItem) {
		for _, it := range items {
			if limit > 0 && len(out) >= limit {
				return
			}
			if it.Track.Track != nil {
				out = append(out, fromSimple(it.Track.Track.SimpleTrack))
			}
		}
	}
	add(page.Items)
	for page.Next != "" && (limit <= 0 || len(out) < limit) {
		if err := c.raw.NextPage(ctx, page); err != nil {
			break
		}
		add(page.Items)
	}
	return out, PlaylistMeta{Title: pl.Name, Source: pl.ExternalURLs["spotify"]}, nil
}

func (c *Client) ArtistTop(ctx context.Context, id string, limit int) ([]Track, PlaylistMeta, error) {
	artist, err := c.raw.GetArtist(ctx, spotify.ID(id))
	if err != nil {
		return nil, PlaylistMeta{}, fmt.Errorf("spotify artist %s: %w", id, err)
	}
	full, err := c.raw.GetArtistsTopTracks(ctx, spotify.ID(id), c.market)
	if err != nil {
		return nil, PlaylistMeta{}, fmt.Errorf("spotify artist top tracks %s: %w", id, err)
	}
	out := make([]Track, 0, len(full))
	for _, t := range full {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, fromSimple(t.SimpleTrack))
	}
	meta := PlaylistMeta{Title: artist.Name + " top tracks", Source: artist.ExternalURLs["spotify"]}
	return out, meta, nil
}

// SearchTracks returns up to limit tracks matching query.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]spotify.FullTrack, error) {
	if limit <= 0 {
		limit = 5
	}
	res, err := c.raw.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, err
	}
	if res.Tracks == nil {
		return nil, nil
	}
	tracks := res.Tracks.Tracks
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}
