package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/sonroyaalmerol/poorjimmy/internal/autocomplete"
	"github.com/sonroyaalmerol/poorjimmy/internal/config"
	"github.com/sonroyaalmerol/poorjimmy/internal/player"
	"github.com/sonroyaalmerol/poorjimmy/internal/repository"
	"github.com/sonroyaalmerol/poorjimmy/internal/resolver"
	"github.com/sonroyaalmerol/poorjimmy/internal/ui"
	"github.com/sonroyaalmerol/poorjimmy/internal/utils"
)

const (
	resolveTimeout  = time.Minute
	playlistTimeout = 3 * time.Minute
	updateTimeout   = 5 * time.Minute
	searchResults   = 5
	searchTTL       = 15 * time.Minute
	queuePageSize   = 10
)

var (
	errNotInVoice  = errors.New("gotta be in a voice channel")
	errGuildOnly   = errors.New("this only works in a server")
	errVoiceFailed = errors.New("couldn't connect to your voice channel")
)

type handlerFunc func(s *discordgo.Session, i *discordgo.InteractionCreate)

type CommandHandler struct {
	cfg     *config.Config
	repo    *repository.Repo
	pm      *player.Manager
	res     *resolver.Resolver
	suggest *autocomplete.Suggester

	// search results waiting for a button press, keyed by token
	pending *resolver.Cache[player.Track]

	commands map[string]handlerFunc
	buttons  map[string]handlerFunc
}

func NewCommandHandler(
	cfg *config.Config,
	repo *repository.Repo,
	pm *player.Manager,
	res *resolver.Resolver,
	suggest *autocomplete.Suggester,
) *CommandHandler {
	h := &CommandHandler{
		cfg:     cfg,
		repo:    repo,
		pm:      pm,
		res:     res,
		suggest: suggest,
		pending: resolver.NewCache[player.Track](searchTTL),
	}
	h.commands = map[string]handlerFunc{
		"join":         h.cmdJoin,
		"leave":        h.cmdLeave,
		"play-title":   h.cmdPlayTitle,
		"play-url":     h.cmdPlayURL,
		"playlist":     h.cmdPlaylist,
		"search":       h.cmdSearch,
		"pause":        h.cmdPause,
		"resume":       h.cmdResume,
		"skip":         h.cmdSkip,
		"loop":         h.cmdLoop,
		"clear":        h.cmdClear,
		"list":         h.cmdList,
		"now-playing":  h.cmdNowPlaying,
		"ping":         h.cmdPing,
		"help":         h.cmdHelp,
		"damnit-jimmy": h.cmdDamnitJimmy,
		"config":       h.cmdConfig,
	}
	h.buttons = map[string]handlerFunc{
		ui.ButtonPause:  h.cmdPause,
		ui.ButtonResume: h.cmdResume,
		ui.ButtonSkip:   h.cmdSkip,
		ui.ButtonLoop:   h.cmdLoop,
		ui.ButtonClear:  h.cmdClear,
	}
	return h
}

func (h *CommandHandler) RegisterCommands(s *discordgo.Session, appID string, guildID string) error {
	start := time.Now()
	cmds := commandDefinitions()
	if _, err := s.ApplicationCommandBulkOverwrite(appID, guildID, cmds); err != nil {
		slog.Error("failed to register application commands", "guildID", guildID, "err", err)
		return err
	}
	slog.Info("finished registering commands", "guildID", guildID, "count", len(cmds), "took", time.Since(start))
	return nil
}

func commandDefinitions() []*discordgo.ApplicationCommand {
	minLimit := 1.0
	minDelay := 0.0
	return []*discordgo.ApplicationCommand{
		{Name: "join", Description: "Summon Poor Jimmy to your voice channel"},
		{Name: "leave", Description: "Remove Poor Jimmy from the voice channel"},
		{
			Name:        "play-title",
			Description: "Search and play a song by title",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "title", Description: "song title", Type: discordgo.ApplicationCommandOptionString, Required: true, Autocomplete: true},
			},
		},
		{
			Name:        "play-url",
			Description: "Play a specific YouTube video, share link or Spotify track",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "url", Description: "link to play", Type: discordgo.ApplicationCommandOptionString, Required: true},
			},
		},
		{
			Name:        "playlist",
			Description: "Queue a YouTube playlist or a Spotify album, playlist or artist",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "url", Description: "playlist link", Type: discordgo.ApplicationCommandOptionString, Required: true},
			},
		},
		{
			Name:        "search",
			Description: "Search YouTube and select from results",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "query", Description: "what to search for", Type: discordgo.ApplicationCommandOptionString, Required: true},
			},
		},
		{Name: "pause", Description: "Pause the current song"},
		{Name: "resume", Description: "Resume playback"},
		{Name: "skip", Description: "Skip to the next song in queue"},
		{Name: "loop", Description: "Toggle looping for the current song"},
		{Name: "clear", Description: "Stop playback and clear the entire queue"},
		{
			Name:        "list",
			Description: "View the songs in the queue",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "page", Description: "page of queue to show [default: 1]", Type: discordgo.ApplicationCommandOptionInteger},
			},
		},
		{Name: "now-playing", Description: "Show current song with progress bar"},
		{Name: "ping", Description: "Check if the bot is responsive"},
		{Name: "help", Description: "Display directions on how to use Poor Jimmy's commands"},
		{Name: "damnit-jimmy", Description: "Updates Jimmy's dependencies. Only use this when experiencing playback issues!"},
		{
			Name:        "config",
			Description: "Configure bot settings",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "get", Description: "show settings"},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "set-playlist-limit", Description: "set max playlist add", Options: []*discordgo.ApplicationCommandOption{
					{Name: "limit", Description: "max tracks", Type: discordgo.ApplicationCommandOptionInteger, Required: true, MinValue: &minLimit},
				}},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "set-wait-after-queue-empties", Description: "time to wait before leaving VC", Options: []*discordgo.ApplicationCommandOption{
					{Name: "delay", Description: "seconds (0 never leave)", Type: discordgo.ApplicationCommandOptionInteger, Required: true, MinValue: &minDelay},
				}},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "set-leave-if-no-listeners", Description: "leave when no listeners", Options: []*discordgo.ApplicationCommandOption{
					{Name: "value", Description: "true/false", Type: discordgo.ApplicationCommandOptionBoolean, Required: true},
				}},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "set-auto-announce-next-song", Description: "announce each song as it starts", Options: []*discordgo.ApplicationCommandOption{
					{Name: "value", Description: "true/false", Type: discordgo.ApplicationCommandOptionBoolean, Required: true},
				}},
			},
		},
	}
}

func (h *CommandHandler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		slog.Debug("interaction: application command", "guildID", i.GuildID, "userID", userIDOf(i), "command", name)
		if i.GuildID == "" {
			h.reply(s, i, errGuildOnly.Error(), true)
			return
		}
		fn, ok := h.commands[name]
		if !ok {
			slog.Warn("unknown command", "name", name, "guildID", i.GuildID)
			h.reply(s, i, "Unknown command!", true)
			return
		}
		fn(s, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		h.handleAutocomplete(s, i)
	case discordgo.InteractionMessageComponent:
		id := i.MessageComponentData().CustomID
		slog.Debug("interaction: button", "guildID", i.GuildID, "userID", userIDOf(i), "customID", id)
		if tok, ok := ui.ParseSearchPlayID(id); ok {
			h.searchPlay(s, i, tok)
			return
		}
		fn, ok := h.buttons[id]
		if !ok {
			slog.Warn("unknown button", "customID", id, "guildID", i.GuildID)
			h.reply(s, i, "Unknown command!", true)
			return
		}
		fn(s, i)
	default:
		slog.Debug("interaction: ignored type", "type", i.Type, "guildID", i.GuildID)
	}
}

func (h *CommandHandler) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if data.Name != "play-title" {
		return
	}
	var query string
	for _, opt := range data.Options {
		if opt.Focused {
			query = opt.StringValue()
			break
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()
	choices := h.suggest.Choices(ctx, query, 10)
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	}); err != nil {
		slog.Debug("autocomplete respond failed", "guildID", i.GuildID, "err", err)
	}
}

// settings returns the guild's settings row, creating it with defaults.
func (h *CommandHandler) settings(ctx context.Context, guildID string) *repository.Settings {
	set, err := h.repo.UpsertSettings(ctx, guildID)
	if err != nil {
		slog.Warn("upsert settings failed", "guildID", guildID, "err", err)
		return &repository.Settings{GuildID: guildID, PlaylistLimit: h.cfg.DefaultPlaylistLimit, LeaveIfNoListeners: true, AutoAnnounceNext: true}
	}
	return set
}

// joinCaller connects the guild's session to the caller's voice channel.
func (h *CommandHandler) joinCaller(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) (*player.Session, error) {
	chID, ok := voiceChannelOf(s.State, i.GuildID, userIDOf(i))
	if !ok {
		return nil, errNotInVoice
	}
	sess, err := h.pm.Join(ctx, i.GuildID, chID)
	if err != nil {
		slog.Warn("voice connect failed", "guildID", i.GuildID, "channelID", chID, "err", err)
		return nil, errVoiceFailed
	}
	set := h.settings(ctx, i.GuildID)
	sess.SetIdleTimeout(time.Duration(set.SecondsWaitAfterEmpty) * time.Second)
	return sess, nil
}

func (h *CommandHandler) cmdJoin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.deferReply(s, i, false)
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()
	if _, err := h.joinCaller(ctx, s, i); err != nil {
		h.editReply(s, i, err.Error())
		return
	}
	slog.Info("cmd join", "guildID", i.GuildID, "userID", userIDOf(i))
	h.editReply(s, i, "Poor Jimmy has joined the chat")
}

func (h *CommandHandler) cmdLeave(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.pm.Leave(i.GuildID) {
		h.reply(s, i, "not connected", true)
		return
	}
	slog.Info("cmd leave", "guildID", i.GuildID, "userID", userIDOf(i))
	h.reply(s, i, "u betcha, disconnected", false)
}

func (h *CommandHandler) cmdPlayTitle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	title := optionString(i.ApplicationCommandData().Options, "title")
	slog.Info("cmd play-title", "guildID", i.GuildID, "userID", userIDOf(i), "title", title)
	h.playOne(s, i, func(ctx context.Context) (player.Track, error) {
		return h.res.ResolveByTitle(ctx, title)
	})
}

func (h *CommandHandler) cmdPlayURL(s *discordgo.Session, i *discordgo.InteractionCreate) {
	raw := optionString(i.ApplicationCommandData().Options, "url")
	slog.Info("cmd play-url", "guildID", i.GuildID, "userID", userIDOf(i), "url", raw)
	h.playOne(s, i, func(ctx context.Context) (player.Track, error) {
		return h.res.ResolveByURL(ctx, raw)
	})
}

const (
	staleTrackMsg    = "the session ended or was cleared while that was loading, so it was not added"
	stalePlaylistMsg = "the session ended or was cleared while that was loading, so nothing was added"
)

// enqueueReply describes an enqueue outcome. A stale outcome means the session
// was left, replaced or cleared while the request was resolving.
func enqueueReply(first player.Track, out player.EnqueueOutcome, playlist string, failed int) string {
	if !out.Stale {
		return ui.EnqueuedMessage(first, out, playlist, failed)
	}
	if playlist != "" {
		return stalePlaylistMsg
	}
	return staleTrackMsg
}

// playOne joins, captures a ticket, resolves without holding any session
// lock and enqueues with the ticket.
func (h *CommandHandler) playOne(s *discordgo.Session, i *discordgo.InteractionCreate, resolve func(ctx context.Context) (player.Track, error)) {
	h.deferReply(s, i, false)
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	if _, err := h.joinCaller(ctx, s, i); err != nil {
		h.editReply(s, i, err.Error())
		return
	}
	ticket := h.pm.Begin(i.GuildID)

	t, err := resolve(ctx)
	if err != nil {
		slog.Debug("resolve failed", "guildID", i.GuildID, "userID", userIDOf(i), "err", err)
		h.pm.Release(ticket)
		h.editReply(s, i, userMessage(err))
		return
	}
	t.RequestedBy = userIDOf(i)
	t.AddedInChan = i.ChannelID

	out := h.pm.Enqueue(ticket, t)
	slog.Debug("enqueued track", "guildID", i.GuildID, "title", t.Title, "stale", out.Stale, "started", out.StartedPlayback, "position", out.Position)
	h.editReply(s, i, enqueueReply(t, out, "", 0))
}

func (h *CommandHandler) cmdPlaylist(s *discordgo.Session, i *discordgo.InteractionCreate) {
	raw := optionString(i.ApplicationCommandData().Options, "url")
	slog.Info("cmd playlist", "guildID", i.GuildID, "userID", userIDOf(i), "url", raw)
	h.deferReply(s, i, false)
	ctx, cancel := context.WithTimeout(context.Background(), playlistTimeout)
	defer cancel()

	if _, err := h.joinCaller(ctx, s, i); err != nil {
		h.editReply(s, i, err.Error())
		return
	}
	ticket := h.pm.Begin(i.GuildID)
	set := h.settings(ctx, i.GuildID)

	pl, err := h.res.ResolvePlaylist(ctx, raw, set.PlaylistLimit)
	if err != nil {
		slog.Debug("playlist resolve failed", "guildID", i.GuildID, "url", raw, "err", err)
		h.pm.Release(ticket)
		h.editReply(s, i, userMessage(err))
		return
	}
	for idx := range pl.Tracks {
		pl.Tracks[idx].RequestedBy = userIDOf(i)
		pl.Tracks[idx].AddedInChan = i.ChannelID
	}

	out := h.pm.EnqueueMany(ticket, pl.Tracks)
	slog.Info("enqueued playlist", "guildID", i.GuildID, "title", pl.Title, "stale", out.Stale, "queued", out.Queued, "failed", pl.Failed)
	h.editReply(s, i, enqueueReply(pl.Tracks[0], out, pl.Title, pl.Failed))
}

func (h *CommandHandler) cmdSearch(s *discordgo.Session, i *discordgo.InteractionCreate) {
	query := optionString(i.ApplicationCommandData().Options, "query")
	slog.Info("cmd search", "guildID", i.GuildID, "userID", userIDOf(i), "query", query)
	h.deferReply(s, i, false)
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	results, err := h.res.Search(ctx, query, searchResults)
	if err != nil {
		h.editReply(s, i, userMessage(err))
		return
	}
	if len(results) == 0 {
		h.editReply(s, i, "no songs found")
		return
	}
	tokens := make([]string, len(results))
	for idx, t := range results {
		tokens[idx] = uuid.NewString()
		h.pending.Set(tokens[idx], t)
	}
	h.editEmbed(s, i, ui.SearchEmbed(query, results), ui.SearchButtons(tokens))
}

func (h *CommandHandler) searchPlay(s *discordgo.Session, i *discordgo.InteractionCreate, token string) {
	t, ok := h.pending.Get(token)
	if !ok {
		h.reply(s, i, "that search expired, run /search again", true)
		return
	}
	slog.Info("search pick", "guildID", i.GuildID, "userID", userIDOf(i), "title", t.Title)
	h.playOne(s, i, func(context.Context) (player.Track, error) {
		t.ID = uuid.NewString()
		return t, nil
	})
}

func (h *CommandHandler) cmdPause(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := h.pm.Pause(i.GuildID); err != nil {
		h.reply(s, i, userMessage(err), true)
		return
	}
	slog.Info("cmd pause", "guildID", i.GuildID, "userID", userIDOf(i))
	h.reply(s, i, "the stop-and-go light is now red", false)
}

func (h *CommandHandler) cmdResume(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := h.pm.Resume(i.GuildID); err != nil {
		h.reply(s, i, userMessage(err), true)
		return
	}
	slog.Info("cmd resume", "guildID", i.GuildID, "userID", userIDOf(i))
	h.reply(s, i, "the stop-and-go light is now green", false)
}

func (h *CommandHandler) cmdSkip(s *discordgo.Session, i *discordgo.InteractionCreate) {
	next, err := h.pm.Skip(i.GuildID)
	if err != nil {
		h.reply(s, i, userMessage(err), true)
		return
	}
	slog.Info("cmd skip", "guildID", i.GuildID, "userID", userIDOf(i))
	if next == nil {
		h.reply(s, i, "skipped, that was the last song", false)
		return
	}
	h.reply(s, i, "skipped, now playing **"+utils.EscapeMd(next.Title)+"**", false)
}

func (h *CommandHandler) cmdLoop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	on, err := h.pm.ToggleLoop(i.GuildID)
	if err != nil {
		h.reply(s, i, userMessage(err), true)
		return
	}
	slog.Info("cmd loop", "guildID", i.GuildID, "userID", userIDOf(i), "on", on)
	if on {
		h.reply(s, i, "looping the current song", false)
		return
	}
	h.reply(s, i, "stopped looping", false)
}

func (h *CommandHandler) cmdClear(s *discordgo.Session, i *discordgo.InteractionCreate) {
	n := h.pm.Clear(i.GuildID)
	slog.Info("cmd clear", "guildID", i.GuildID, "userID", userIDOf(i), "removed", n)
	if n == 0 {
		h.reply(s, i, "the queue is already empty", true)
		return
	}
	h.reply(s, i, fmt.Sprintf("clearer than a field after a fresh harvest (%d removed)", n), false)
}

func (h *CommandHandler) cmdList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	page := 1
	if v, ok := optionInt(i.ApplicationCommandData().Options, "page"); ok {
		page = int(v)
	}
	v, ok := h.pm.Snapshot(i.GuildID)
	if !ok {
		h.reply(s, i, userMessage(player.ErrNoActiveSession), true)
		return
	}
	embed, err := ui.QueueEmbed(v, page, queuePageSize)
	if err != nil {
		h.reply(s, i, err.Error(), true)
		return
	}
	slog.Debug("cmd list", "guildID", i.GuildID, "userID", userIDOf(i), "page", page)
	h.replyEmbed(s, i, embed, ui.PlayerControls(v.Status == player.StatusPaused, v.Loop))
}

func (h *CommandHandler) cmdNowPlaying(s *discordgo.Session, i *discordgo.InteractionCreate) {
	v, ok := h.pm.Snapshot(i.GuildID)
	if !ok || v.Current == nil {
		h.reply(s, i, "nothing is currently playing", true)
		return
	}
	slog.Debug("cmd now-playing", "guildID", i.GuildID, "userID", userIDOf(i), "title", v.Current.Title)
	h.replyEmbed(s, i, ui.NowPlayingEmbed(v), ui.PlayerControls(v.Status == player.StatusPaused, v.Loop))
}

func (h *CommandHandler) cmdPing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.reply(s, i, fmt.Sprintf("Pong! (%s)", s.HeartbeatLatency().Round(time.Millisecond)), false)
}

func (h *CommandHandler) cmdHelp(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.replyEmbed(s, i, &discordgo.MessageEmbed{Description: helpText, Color: 0x1F8B4C}, nil)
}

func (h *CommandHandler) cmdDamnitJimmy(s *discordgo.Session, i *discordgo.InteractionCreate) {
	slog.Info("cmd damnit-jimmy", "guildID", i.GuildID, "userID", userIDOf(i))
	h.deferReply(s, i, false)
	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()

	out, err := utils.RunShell(ctx, h.cfg.UpdateCommand)
	slog.Info("dependency update output", "output", string(out))
	if err != nil {
		slog.Error("dependency update failed", "err", err)
		h.editEmbed(s, i, &discordgo.MessageEmbed{Description: "Failed to update Jimmy's dependencies!", Color: 0x992D22}, nil)
		return
	}
	h.editEmbed(s, i, &discordgo.MessageEmbed{Description: "Successfully updated Jimmy's dependencies!", Color: 0x1F8B4C}, nil)
}

func (h *CommandHandler) cmdConfig(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	set := h.settings(ctx, i.GuildID)
	sub := i.ApplicationCommandData().Options[0]

	switch sub.Name {
	case "get":
		slog.Debug("config get", "guildID", i.GuildID)
		h.reply(s, i, formatSettings(set), false)
		return
	case "set-playlist-limit":
		set.PlaylistLimit = int(sub.Options[0].IntValue())
	case "set-wait-after-queue-empties":
		set.SecondsWaitAfterEmpty = int(sub.Options[0].IntValue())
	case "set-leave-if-no-listeners":
		set.LeaveIfNoListeners = sub.Options[0].BoolValue()
	case "set-auto-announce-next-song":
		set.AutoAnnounceNext = sub.Options[0].BoolValue()
	default:
		h.reply(s, i, "Unknown command!", true)
		return
	}

	if err := h.repo.UpdateSettings(ctx, set); err != nil {
		if errors.Is(err, repository.ErrInvalidSettings) {
			h.reply(s, i, "invalid value", true)
			return
		}
		slog.Error("update settings failed", "guildID", i.GuildID, "err", err)
		h.reply(s, i, "failed to save config", true)
		return
	}
	if sess, ok := h.pm.Get(i.GuildID); ok {
		sess.SetIdleTimeout(time.Duration(set.SecondsWaitAfterEmpty) * time.Second)
	}
	slog.Info("config updated", "guildID", i.GuildID, "key", sub.Name, "settings", *set)
	h.reply(s, i, "👍 "+strings.TrimPrefix(sub.Name, "set-")+" updated", false)
}

func formatSettings(set *repository.Settings) string {
	wait := "never leave"
	if set.SecondsWaitAfterEmpty > 0 {
		wait = fmt.Sprintf("%ds", set.SecondsWaitAfterEmpty)
	}
	return fmt.Sprintf(
		"Config\n- Playlist Limit: %d\n- Wait before leaving after queue empty: %s\n- Leave if no listeners: %t\n- Auto announce next song: %t",
		set.PlaylistLimit, wait, set.LeaveIfNoListeners, set.AutoAnnounceNext,
	)
}

// userMessage turns an error from the player or the resolver into the text
// shown to the user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, player.ErrNoActiveSession):
		return "Poor Jimmy is not in a voice channel, use /join first"
	case errors.Is(err, player.ErrNothingPlaying):
		return "nothing is currently playing"
	case errors.Is(err, player.ErrNotPaused):
		return "the song is not paused"
	case errors.Is(err, player.ErrAlreadyPaused):
		return "the song is already paused"
	case errors.Is(err, context.DeadlineExceeded):
		return "that took too long, try again"
	case errors.Is(err, player.ErrResolutionFailed):
		return err.Error()
	default:
		return "something went wrong: " + err.Error()
	}
}

func optionString(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, o := range opts {
		if o.Name == name {
			return strings.TrimSpace(o.StringValue())
		}
	}
	return ""
}

func optionInt(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) (int64, bool) {
	for _, o := range opts {
		if o.Name == name {
			return o.IntValue(), true
		}
	}
	return 0, false
}

func userIDOf(i *discordgo.InteractionCreate) string {
	if i == nil {
		return ""
	}
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
