package autocomplete

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sonroyaalmerol/poorjimmy/internal/utils"
	"github.com/zmb3/spotify/v2"
)

const (
	suggestURL = "https://suggestqueries.google.com/complete/search"
	// Discord caps choices at 25 and choice names and values at 100 characters.
	maxChoices = 25
	maxLen     = 100
)

// TrackSearcher is satisfied by the Spotify client.
type TrackSearcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]spotify.FullTrack, error)
}

type Suggester struct {
	http    *http.Client
	base    string
	spotify TrackSearcher
}

// NewSuggester returns a suggester backed by YouTube search suggestions and,
// when sp is non-nil, Spotify track search.
func NewSuggester(sp TrackSearcher) *Suggester {
	return &Suggester{
		http:    &http.Client{Timeout: 2 * time.Second},
		base:    suggestURL,
		spotify: sp,
	}
}

func (s *Suggester) YouTube(ctx context.Context, query string) ([]string, error) {
	u, _ := url.Parse(s.base)
	q := u.Query()
	q.Set("client", "firefox")
	q.Set("ds", "yt")
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	req.Header.Set("User-Agent", utils.RandomUserAgent())
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("suggest: http %d", resp.StatusCode)
	}
	return parseSuggestions(resp.Body)
}

// parseSuggestions reads the ["query", ["s1", "s2", ...]] response shape.
func parseSuggestions(r io.Reader) ([]string, error) {
	var parsed []any
	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed) < 2 {
		return nil, nil
	}
	arr, ok := parsed[1].([]any)
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// Choices builds autocomplete choices for query. YouTube suggestions come
// first; Spotify tracks take up to half of the slots and carry a
// spotify:track URI as their value. Lookup failures only shrink the list.
func (s *Suggester) Choices(ctx context.Context, query string, limit int) []*discordgo.ApplicationCommandOptionChoice {
	if limit <= 0 || limit > maxChoices {
		limit = 10
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []*discordgo.ApplicationCommandOptionChoice{}
	}

	yt, err := s.YouTube(ctx, query)
	if err != nil {
		slog.Debug("youtube suggestions failed", "err", err)
	}

	var tracks []spotify.FullTrack
	if s.spotify != nil {
		tracks, err = s.spotify.SearchTracks(ctx, query, limit/2)
		if err != nil {
			slog.Debug("spotify suggestions failed", "err", err)
			tracks = nil
		}
	}

	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, limit)
	for _, v := range yt {
		if len(out) >= limit-len(tracks) {
			break
		}
		if len(v) > maxLen {
			continue
		}
		out = append(out, &discordgo.ApplicationCommandOptionChoice{
			Name:  utils.Truncate("YouTube: "+v, maxLen),
			Value: v,
		})
	}
	for _, t := range tracks {
		if len(out) >= limit {
			break
		}
		name := "Spotify: 🎵 " + t.Name
		if len(t.Artists) > 0 {
			name += " - " + t.Artists[0].Name
		}
		out = append(out, &discordgo.ApplicationCommandOptionChoice{
			Name:  utils.Truncate(name, maxLen),
			Value: "spotify:track:" + t.ID.String(),
		})
	}
	return out
}
