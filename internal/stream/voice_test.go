package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sonroyaalmerol/poorjimmy/internal/player"
)

// fakeJoiner keeps one connection per guild and moves it between channels,
// as discordgo does.
type fakeJoiner struct {
	joined []string
	err    error
	vc     *discordgo.VoiceConnection
}

func (j *fakeJoiner) ChannelVoiceJoin(guildID, channelID string, mute, deaf bool) (*discordgo.VoiceConnection, error) {
	if j.err != nil {
		return nil, j.err
	}
	j.joined = append(j.joined, channelID)
	if j.vc == nil {
		j.vc = &discordgo.VoiceConnection{GuildID: guildID, Ready: true}
	}
	j.vc.ChannelID = channelID
	return j.vc, nil
}

type fakeResolver struct {
	err     error
	release chan struct{}
}

func (r *fakeResolver) GetInfo(ctx context.Context, url string) (Info, error) {
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return Info{}, ctx.Err()
		}
	}
	return Info{}, r.err
}

var _ player.Transport = (*Voice)(nil)

func TestVoiceStartRequiresConnection(t *testing.T) {
	v := NewVoice(&fakeJoiner{}, &fakeResolver{}, "g1")
	_, err := v.Start(player.Track{Title: "A"}, func(error) {})
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("start = %v, want ErrNotConnected", err)
	}
}

func TestVoiceConnectSameChannelIsNoop(t *testing.T) {
	j := &fakeJoiner{}
	v := NewVoice(j, &fakeResolver{}, "g1")
	ctx := context.Background()
	if err := v.Connect(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	if err := v.Connect(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	if len(j.joined) != 1 || v.ChannelID() != "c1" {
		t.Fatalf("joined = %v, channel = %q", j.joined, v.ChannelID())
	}
}

func TestVoiceConnectMovesWithoutDisconnect(t *testing.T) {
	j := &fakeJoiner{}
	v := NewVoice(j, &fakeResolver{}, "g1")
	ctx := context.Background()
	if err := v.Connect(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	first := j.vc
	if err := v.Connect(ctx, "c2"); err != nil {
		t.Fatal(err)
	}

	if len(j.joined) != 2 || v.ChannelID() != "c2" {
		t.Fatalf("joined = %v, channel = %q", j.joined, v.ChannelID())
	}
	if !first.Ready || first.ChannelID != "c2" {
		t.Fatal("connection was torn down while moving channels")
	}
}

func TestVoiceConnectError(t *testing.T) {
	boom := errors.New("missing permissions")
	v := NewVoice(&fakeJoiner{err: boom}, &fakeResolver{}, "g1")
	if err := v.Connect(context.Background(), "c1"); !errors.Is(err, boom) {
		t.Fatalf("connect = %v", err)
	}
	if v.ChannelID() != "" {
		t.Fatal("failed connect recorded a channel")
	}
}

func TestVoiceReportsResolveFailureAsynchronously(t *testing.T) {
	boom := errors.New("video unavailable")
	v := NewVoice(&fakeJoiner{}, &fakeResolver{err: boom}, "g1")
	if err := v.Connect(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	st, err := v.Start(player.Track{Title: "A", Source: "https://x"}, func(err error) { done <- err })
	if err != nil || st == nil {
		t.Fatalf("start = %v, %v", st, err)
	}
	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Fatalf("done(%v), want resolve error", err)
		}
	case <-time.After(time.Second):
		t.Fatal("done never called")
	}
}

func TestVoiceStoppedPlaybackEndsCleanly(t *testing.T) {
	res := &fakeResolver{release: make(chan struct{})}
	defer close(res.release)
	v := NewVoice(&fakeJoiner{}, res, "g1")
	if err := v.Connect(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}

	first := make(chan error, 1)
	second := make(chan error, 1)
	a, _ := v.Start(player.Track{Title: "A"}, func(err error) { first <- err })
	if _, err := v.Start(player.Track{Title: "B"}, func(err error) { second <- err }); err != nil {
		t.Fatal(err)
	}

	select {
	case <-second:
		t.Fatal("second playback ran before the first released the connection")
	case <-time.After(20 * time.Millisecond):
	}

	a.Stop()
	select {
	case err := <-first:
		if err != nil {
			t.Fatalf("stopped playback reported %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("stopped playback never reported")
	}
	if a.PositionSec() != 0 {
		t.Fatalf("position = %d", a.PositionSec())
	}
}

func TestVoiceClosed(t *testing.T) {
	v := NewVoice(&fakeJoiner{}, &fakeResolver{}, "g1")
	if err := v.Close(); err != nil {
		t.Fatal(err)
	}
	if err := v.Close(); err != nil {
		t.Fatalf("second close = %v", err)
	}
	if _, err := v.Start(player.Track{}, func(error) {}); !errors.Is(err, ErrTransportClosed) {
		t.Fatalf("start after close = %v", err)
	}
	if err := v.Connect(context.Background(), "c1"); !errors.Is(err, ErrTransportClosed) {
		t.Fatalf("connect after close = %v", err)
	}
}
