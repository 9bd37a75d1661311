package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	ytdlp "github.com/lrstanley/go-ytdlp"
)

// ErrNoMedia is returned when yt-dlp answered but produced no usable entry.
var ErrNoMedia = errors.New("yt-dlp returned no media")

// Info is the subset of yt-dlp's extracted metadata the bot relies on.
type Info struct {
	ID          string
	Title       string
	Uploader    string
	Duration    float64
	IsLive      bool
	Description string
	WebpageURL  string
	URL         string
	Thumbnail   string

	formatURLs    []string
	requestedURLs []string
}

// Link returns the page a listener would open for this entry.
func (i Info) Link() string {
	if i.WebpageURL != "" {
		return i.WebpageURL
	}
	if strings.HasPrefix(i.URL, "http") {
		return i.URL
	}
	if i.ID != "" {
		return "https://www.youtube.com/watch?v=" + i.ID
	}
	return ""
}

// YTDLP runs yt-dlp with the bot's YouTube credentials applied.
type YTDLP struct {
	CookiesPath string
	POToken     string

	installOnce sync.Once
}

func NewYTDLP(cookiesPath, poToken string) *YTDLP {
	return &YTDLP{CookiesPath: cookiesPath, POToken: poToken}
}

// Install makes sure a yt-dlp binary is available. It runs at most once.
func (y *YTDLP) Install(ctx context.Context) {
	y.installOnce.Do(func() {
		ytdlp.MustInstall(ctx, nil)
	})
}

func (y *YTDLP) command(target string) *ytdlp.Command {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		NoCheckCertificates()

	if y.CookiesPath != "" {
		cmd = cmd.Cookies(y.CookiesPath)
	}
	if isYouTube(target) {
		args := "youtube:player-client=default,mweb"
		if y.POToken != "" {
			args += ";po_token=" + y.POToken
		}
		cmd = cmd.ExtractorArgs(args)
	}
	return cmd
}

// GetInfo extracts one media entry, with its playable formats, for url.
func (y *YTDLP) GetInfo(ctx context.Context, url string) (Info, error) {
	y.Install(ctx)
	res, err := y.command(url).
		Format("ba[acodec^=opus]/ba[ext=m4a]/bestaudio/best").
		NoPlaylist().
		DumpJSON().
		Run(ctx, url)
	if err != nil {
		return Info{}, wrapRunErr(url, err)
	}
	infos, err := res.GetExtractedInfo()
	if err != nil {
		return Info{}, fmt.Errorf("parse yt-dlp json for %s: %w", url, err)
	}
	entries := flatten(infos)
	if len(entries) == 0 {
		return Info{}, fmt.Errorf("%s: %w", url, ErrNoMedia)
	}
	return entries[0], nil
}

// Playlist lists the entries of a playlist url without resolving each one.
// A positive limit stops the listing after that many entries.
func (y *YTDLP) Playlist(ctx context.Context, url string, limit int) ([]Info, error) {
	y.Install(ctx)
	cmd := y.command(url).
		FlatPlaylist().
		DumpJSON()
	if limit > 0 {
		cmd = cmd.PlaylistItems(fmt.Sprintf("1-%d", limit))
	}

	slog.Debug("fetching playlist", "url", url, "limit", limit)
	res, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, wrapRunErr(url, err)
	}
	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("parse yt-dlp playlist json for %s: %w", url, err)
	}
	entries := flatten(infos)
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", url, ErrNoMedia)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	slog.Debug("playlist listed", "url", url, "entries", len(entries))
	return entries, nil
}

// Search returns up to n YouTube results for query.
func (y *YTDLP) Search(ctx context.Context, query string, n int) ([]Info, error) {
	if n <= 0 {
		n = 1
	}
	y.Install(ctx)
	target := fmt.Sprintf("ytsearch%d:%s", n, query)
	res, err := y.command("youtube").
		FlatPlaylist().
		DumpJSON().
		Run(ctx, target)
	if err != nil {
		return nil, wrapRunErr(target, err)
	}
	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("parse yt-dlp search json: %w", err)
	}
	entries := flatten(infos)
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// AudioURL picks the URL ffmpeg should open: a requested format first, then
// the top-level url, then any listed format, then the page itself.
func AudioURL(info Info) string {
	for _, u := range info.requestedURLs {
		if strings.HasPrefix(u, "http") {
			return u
		}
	}
	if strings.HasPrefix(info.URL, "http") {
		return info.URL
	}
	for _, u := range info.formatURLs {
		if strings.HasPrefix(u, "http") {
			return u
		}
	}
	return info.WebpageURL
}

func wrapRunErr(target string, err error) error {
	if strings.Contains(err.Error(), "Sign in to confirm") {
		return fmt.Errorf("yt-dlp %s (PO token may be required): %w", target, err)
	}
	return fmt.Errorf("yt-dlp %s: %w", target, err)
}

func isYouTube(s string) bool {
	return strings.Contains(s, "youtube") || strings.Contains(s, "youtu.be")
}

// flatten turns yt-dlp output into a list of media entries. Containers
// contribute their entries; plain results contribute themselves.
func flatten(infos []*ytdlp.ExtractedInfo) []Info {
	var out []Info
	for _, ext := range infos {
		if ext == nil {
			continue
		}
		if len(ext.Entries) > 0 {
			for _, e := range ext.Entries {
				if e != nil {
					out = append(out, fromExtracted(e))
				}
			}
			continue
		}
		out = append(out, fromExtracted(ext))
	}
	return out
}

func fromExtracted(e *ytdlp.ExtractedInfo) Info {
	info := Info{
		ID:          e.ID,
		Title:       deref(e.Title),
		Uploader:    deref(e.Uploader),
		Duration:    deref(e.Duration),
		IsLive:      deref(e.IsLive),
		Description: deref(e.Description),
		WebpageURL:  deref(e.WebpageURL),
		URL:         deref(e.URL),
	}
	for _, t := range e.Thumbnails {
		if t != nil && t.URL != "" {
			info.Thumbnail = t.URL
		}
	}
	for _, f := range e.RequestedFormats {
		if f != nil {
			info.requestedURLs = append(info.requestedURLs, f.URL)
		}
	}
	for _, f := range e.Formats {
		if f != nil {
			info.formatURLs = append(info.formatURLs, f.URL)
		}
	}
	return info
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
