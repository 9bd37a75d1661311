package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sonroyaalmerol/poorjimmy/internal/player"
	"github.com/sonroyaalmerol/poorjimmy/internal/utils"
)

const (
	colorPlaying = 0x006400
	colorPaused  = 0x8B0000
	colorIdle    = 0x992222
	colorInfo    = 0x1E90FF

	maxDesc = 4096
)

var (
	ErrQueueEmpty = errors.New("queue is empty")
	ErrPageRange  = errors.New("the queue isn't that big")
)

func trackLink(t player.Track) string {
	title := utils.EscapeMd(t.Title)
	if t.Source == "" {
		return title
	}
	return fmt.Sprintf("[%s](%s)", title, t.Source)
}

func duration(t player.Track) string {
	if t.IsLive {
		return "live"
	}
	if t.Length <= 0 {
		return "?"
	}
	return utils.PrettyTime(t.Length)
}

func footer(t player.Track) *discordgo.MessageEmbedFooter {
	text := "Source: " + t.Artist
	if t.Playlist != "" {
		text += " (" + t.Playlist + ")"
	}
	return &discordgo.MessageEmbedFooter{Text: text}
}

func progressLine(v player.QueueView) string {
	cur := v.Current
	button := "⏸️"
	if v.Status == player.StatusPaused {
		button = "▶️"
	}
	progress := 0.0
	if cur.Length > 0 {
		progress = float64(v.PositionSec) / float64(cur.Length)
	}
	elapsed := "live"
	if !cur.IsLive {
		elapsed = fmt.Sprintf("%s/%s", utils.PrettyTime(v.PositionSec), duration(*cur))
	}
	loop := ""
	if v.Loop {
		loop = "🔂"
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s `[ %s ]` %s", button, ProgressBar(10, progress), elapsed, loop))
}

func NowPlayingEmbed(v player.QueueView) *discordgo.MessageEmbed {
	cur := v.Current
	if cur == nil {
		return &discordgo.MessageEmbed{
			Title:       "Nothing Playing",
			Description: "No playing song found",
			Color:       colorIdle,
		}
	}

	color := colorPlaying
	title := "Now Playing"
	if v.Status == player.StatusPaused {
		color = colorPaused
		title = "Paused"
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: fmt.Sprintf("**%s**\nRequested by: <@%s>\n\n%s", trackLink(*cur), cur.RequestedBy, progressLine(v)),
		Color:       color,
		Footer:      footer(*cur),
	}
	if cur.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: cur.Thumbnail}
	}
	return embed
}

// QueueEmbed renders one page of the pending list under the current track.
// Pages are 1-based.
func QueueEmbed(v player.QueueView, page, pageSize int) (*discordgo.MessageEmbed, error) {
	cur := v.Current
	if cur == nil {
		return nil, ErrQueueEmpty
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	maxPage := max(1, (len(v.Pending)+pageSize-1)/pageSize)
	if page < 1 || page > maxPage {
		return nil, ErrPageRange
	}

	begin := (page - 1) * pageSize
	end := min(begin+pageSize, len(v.Pending))

	desc := fmt.Sprintf("**%s**\nRequested by: <@%s>\n\n%s\n\n", trackLink(*cur), cur.RequestedBy, progressLine(v))
	if end > begin {
		var b strings.Builder
		b.WriteString("**Up next:**\n")
		for i, t := range v.Pending[begin:end] {
			line := fmt.Sprintf("`%d.` %s `[ %s ]`\n", begin+i+1, trackLink(t), duration(t))
			if b.Len()+len(line)+len(desc) > maxDesc {
				break
			}
			b.WriteString(line)
		}
		desc += b.String()
	}

	title := "Now Playing"
	if v.Loop {
		title += " (loop on)"
	}
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: desc,
		Color:       colorPlaying,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "In queue", Value: queueInfo(len(v.Pending)), Inline: true},
			{Name: "Total length", Value: totalLenStr(v.TotalLength()), Inline: true},
			{Name: "Page", Value: fmt.Sprintf("%d out of %d", page, maxPage), Inline: true},
		},
		Footer: footer(*cur),
	}
	if cur.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: cur.Thumbnail}
	}
	return embed, nil
}

// AnnounceEmbed is posted in the requesting channel when a track starts.
func AnnounceEmbed(t player.Track) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "Now Playing",
		Description: fmt.Sprintf("**%s** `[ %s ]`\nRequested by: <@%s>", trackLink(t), duration(t), t.RequestedBy),
		Color:       colorPlaying,
		Footer:      footer(t),
	}
	if t.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: t.Thumbnail}
	}
	return embed
}

// EnqueuedMessage describes the outcome of adding tracks for the reply.
func EnqueuedMessage(first player.Track, out player.EnqueueOutcome, playlist string, failed int) string {
	var msg string
	switch {
	case out.Queued > 1:
		name := "tracks"
		if playlist != "" {
			name = "tracks from **" + utils.EscapeMd(playlist) + "**"
		}
		msg = fmt.Sprintf("Queued %d %s", out.Queued, name)
		if out.StartedPlayback {
			msg += fmt.Sprintf(", now playing **%s**", utils.EscapeMd(first.Title))
		}
	case out.StartedPlayback:
		msg = fmt.Sprintf("Now playing **%s**", utils.EscapeMd(first.Title))
	default:
		msg = fmt.Sprintf("Queued **%s** at position %d", utils.EscapeMd(first.Title), out.Position)
	}
	if failed > 0 {
		msg += fmt.Sprintf(" (%d could not be resolved)", failed)
	}
	if out.StartErr != nil {
		msg += fmt.Sprintf("\nCould not start playback: %v", out.StartErr)
	}
	return msg
}

func SearchEmbed(query string, results []player.Track) *discordgo.MessageEmbed {
	var b strings.Builder
	for i, t := range results {
		fmt.Fprintf(&b, "`%d.` %s `[ %s ]`\n%s\n", i+1, trackLink(t), duration(t), utils.EscapeMd(t.Artist))
	}
	return &discordgo.MessageEmbed{
		Title:       "Results for " + utils.Truncate(query, 200),
		Description: b.String(),
		Color:       colorInfo,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Pick a number to play it"},
	}
}

func queueInfo(n int) string {
	if n == 0 {
		return "-"
	}
	if n == 1 {
		return "1 song"
	}
	return fmt.Sprintf("%d songs", n)
}

func totalLenStr(sec int) string {
	if sec <= 0 {
		return "-"
	}
	return utils.PrettyTime(sec)
}
