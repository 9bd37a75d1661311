package handlers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sonroyaalmerol/poorjimmy/internal/autocomplete"
	"github.com/sonroyaalmerol/poorjimmy/internal/config"
	"github.com/sonroyaalmerol/poorjimmy/internal/player"
	"github.com/sonroyaalmerol/poorjimmy/internal/repository"
	"github.com/sonroyaalmerol/poorjimmy/internal/resolver"
	"github.com/sonroyaalmerol/poorjimmy/internal/spotify"
	"github.com/sonroyaalmerol/poorjimmy/internal/stream"
	"github.com/sonroyaalmerol/poorjimmy/internal/ui"
)

type Bot struct {
	cfg  *config.Config
	repo *repository.Repo
	dg   *discordgo.Session
	yt   *stream.YTDLP
	pm   *player.Manager
	cmd  *CommandHandler

	announced sync.Map // guildID -> track ID last announced
}

func NewBot(cfg *config.Config, repo *repository.Repo) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates

	yt := stream.NewYTDLP(cfg.YouTubeCookiesPath, cfg.YouTubePOToken)

	var catalog resolver.Catalog
	var searcher autocomplete.TrackSearcher
	if cfg.SpotifyEnabled() {
		sp := spotify.NewClientCredentials(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
		catalog, searcher = sp, sp
	}

	b := &Bot{cfg: cfg, repo: repo, dg: dg, yt: yt}
	b.pm = player.NewManager(
		func(guildID string) player.Transport { return stream.NewVoice(dg, yt, guildID) },
		player.WithTrackStartHook(b.announce),
	)
	b.cmd = NewCommandHandler(cfg, repo, b.pm,
		resolver.New(yt, catalog, cfg.ResolveCacheTTL),
		autocomplete.NewSuggester(searcher),
	)
	return b, nil
}

func (b *Bot) Run(ctx context.Context) error {
	b.yt.Install(ctx)

	dg := b.dg
	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("connected", "user", s.State.User.Username)
		b.setPresence(s)
		appID := s.State.User.ID

		if b.cfg.RegisterCommandsOnBot {
			if err := b.cmd.RegisterCommands(s, appID, ""); err != nil {
				slog.Error("register global commands", "err", err)
			} else {
				slog.Info("registered global application commands")
			}
			return
		}

		var wg sync.WaitGroup
		for _, g := range s.State.Guilds {
			wg.Add(1)
			go func(guildID string) {
				defer wg.Done()
				if err := b.cmd.RegisterCommands(s, appID, guildID); err != nil {
					slog.Error("register guild commands", "guild", guildID, "err", err)
				}
			}(g.ID)
		}
		wg.Wait()

		if _, err := s.ApplicationCommandBulkOverwrite(appID, "", []*discordgo.ApplicationCommand{}); err != nil {
			slog.Error("clear global commands", "err", err)
		} else {
			slog.Info("cleared global application commands")
		}
		slog.Info("registered commands on all guilds")
	})

	// If registering per-guild, register on new guilds too
	dg.AddHandler(func(s *discordgo.Session, g *discordgo.GuildCreate) {
		if b.cfg.RegisterCommandsOnBot {
			return
		}
		if err := b.cmd.RegisterCommands(s, s.State.User.ID, g.ID); err != nil {
			slog.Error("register guild commands on join", "guild", g.ID, "err", err)
		}
	})

	dg.AddHandler(b.cmd.HandleInteraction)
	dg.AddHandler(b.onVoiceStateUpdate)

	if err := dg.Open(); err != nil {
		return err
	}
	defer dg.Close()

	<-ctx.Done()
	slog.Info("shutting down", "sessions", b.pm.Len())
	b.pm.Shutdown()
	return nil
}

func (b *Bot) setPresence(s *discordgo.Session) {
	err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status: b.cfg.BotStatus,
		Activities: []*discordgo.Activity{
			{Name: b.cfg.BotActivity, Type: discordgo.ActivityTypeListening},
		},
	})
	if err != nil {
		slog.Warn("set presence failed", "err", err)
	}
}

// onVoiceStateUpdate tears the session down when the bot was moved out of
// voice by someone else, or when it is left alone and the guild wants that.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	gid := vs.GuildID
	if _, ok := b.pm.Get(gid); !ok {
		return
	}
	selfID := s.State.User.ID

	if vs.UserID == selfID && vs.ChannelID == "" {
		if b.pm.Leave(gid) {
			slog.Info("voice disconnected externally", "guildID", gid)
		}
		return
	}

	chID, ok := voiceChannelOf(s.State, gid, selfID)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	set, err := b.repo.GetSettings(ctx, gid)
	if err != nil || set == nil || !set.LeaveIfNoListeners {
		return
	}
	if nonBotListeners(s.State, gid, chID) == 0 {
		slog.Info("leaving empty channel", "guildID", gid, "channelID", chID)
		b.pm.Leave(gid)
	}
}

// announce posts the started track in the channel it was requested from.
// Loop restarts of the same track are not announced again.
func (b *Bot) announce(guildID string, t player.Track) {
	if prev, ok := b.announced.Swap(guildID, t.ID); ok && prev == t.ID {
		return
	}
	if t.AddedInChan == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	set, err := b.repo.GetSettings(ctx, guildID)
	if err == nil && !set.AutoAnnounceNext {
		return
	}
	_, err = b.dg.ChannelMessageSendComplex(t.AddedInChan, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{ui.AnnounceEmbed(t)},
		Components: ui.PlayerControls(false, false),
	})
	if err != nil {
		slog.Warn("announce failed", "guildID", guildID, "channelID", t.AddedInChan, "err", err)
	}
}

func voiceChannelOf(st *discordgo.State, guildID, userID string) (string, bool) {
	g, _ := st.Guild(guildID)
	if g == nil {
		return "", false
	}
	for _, vs := range g.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return vs.ChannelID, true
		}
	}
	return "", false
}

func nonBotListeners(st *discordgo.State, guildID, channelID string) int {
	g, _ := st.Guild(guildID)
	if g == nil {
		return 0
	}
	n := 0
	for _, vs := range g.VoiceStates {
		if vs.ChannelID != channelID {
			continue
		}
		m, _ := st.Member(guildID, vs.UserID)
		if m != nil && m.User != nil && !m.User.Bot {
			n++
		}
	}
	return n
}
