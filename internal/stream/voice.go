package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sonroyaalmerol/poorjimmy/internal/player"
)

var (
	ErrNotConnected    = errors.New("not connected to a voice channel")
	ErrVoiceNotReady   = errors.New("voice connection not ready")
	ErrTransportClosed = errors.New("voice transport closed")
)

const (
	ringPackets      = 100
	minBuffered      = 20
	sendTimeout      = 200 * time.Millisecond
	readyTimeout     = 5 * time.Second
	maxConsecDropped = 25
)

// VoiceJoiner is the part of *discordgo.Session the transport needs.
type VoiceJoiner interface {
	ChannelVoiceJoin(guildID, channelID string, mute, deaf bool) (*discordgo.VoiceConnection, error)
}

// MediaResolver turns a track's page URL into something ffmpeg can open.
type MediaResolver interface {
	GetInfo(ctx context.Context, url string) (Info, error)
}

// Voice streams a guild's tracks into a Discord voice channel. One playback
// sends at a time; a new playback waits until the previous one has fully
// released the connection.
type Voice struct {
	joiner   VoiceJoiner
	resolver MediaResolver
	guildID  string

	mu        sync.Mutex
	vc        *discordgo.VoiceConnection
	channelID string
	last      *playback
	closed    bool
}

func NewVoice(joiner VoiceJoiner, resolver MediaResolver, guildID string) *Voice {
	return &Voice{joiner: joiner, resolver: resolver, guildID: guildID}
}

// ChannelID returns the channel the transport is connected to, if any.
func (v *Voice) ChannelID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.channelID
}

func (v *Voice) Connect(ctx context.Context, channelID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrTransportClosed
	}
	if v.vc != nil && v.channelID == channelID {
		v.mu.Unlock()
		return nil
	}
	moving := v.vc != nil
	v.mu.Unlock()

	// A guild has one voice connection; joining another channel moves it in
	// place without a disconnect, so the gateway never reports the bot as gone.
	vc, err := v.joiner.ChannelVoiceJoin(v.guildID, channelID, false, true)
	if err != nil {
		return fmt.Errorf("join voice channel %s: %w", channelID, err)
	}
	if vc.OpusSend == nil {
		vc.OpusSend = make(chan []byte, 2)
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		v.safeDisconnect(vc)
		return ErrTransportClosed
	}
	v.vc, v.channelID = vc, channelID
	v.mu.Unlock()
	slog.Info("joined voice", "guildID", v.guildID, "channelID", channelID, "moved", moving)
	return nil
}

// Start hands the track to a new sender goroutine and returns at once.
func (v *Voice) Start(t player.Track, done func(error)) (player.Stream, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, ErrTransportClosed
	}
	if v.vc == nil {
		return nil, ErrNotConnected
	}

	ctx, cancel := context.WithCancel(context.Background())
	pb := &playback{
		guildID:  v.guildID,
		track:    t,
		done:     done,
		ctx:      ctx,
		cancel:   cancel,
		finished: make(chan struct{}),
	}
	prev := v.last
	v.last = pb
	go pb.run(v.vc, prev, v.resolver)
	return pb, nil
}

func (v *Voice) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	vc, last := v.vc, v.last
	v.vc, v.channelID, v.last = nil, "", nil
	v.mu.Unlock()

	if last != nil {
		last.Stop()
	}
	if vc == nil {
		return nil
	}
	return v.safeDisconnect(vc)
}

// safeDisconnect tolerates connections discordgo already tore down.
func (v *Voice) safeDisconnect(vc *discordgo.VoiceConnection) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("voice disconnect panic recovered", "panic", r, "guildID", v.guildID)
			err = fmt.Errorf("voice disconnect panicked: %v", r)
		}
	}()
	if vc.OpusSend == nil {
		vc.OpusSend = make(chan []byte, 2)
	}
	if vc.OpusRecv == nil {
		vc.OpusRecv = make(chan *discordgo.Packet, 2)
	}
	_ = vc.Speaking(false)
	return vc.Disconnect()
}

// playback is one track being streamed. It implements player.Stream.
type playback struct {
	guildID string
	track   player.Track
	done    func(error)

	ctx      context.Context
	cancel   context.CancelFunc
	gate     gate
	sent     atomic.Int64
	finished chan struct{}
}

func (p *playback) Pause()  { p.gate.pause() }
func (p *playback) Resume() { p.gate.resume() }
func (p *playback) Stop()   { p.cancel() }

func (p *playback) PositionSec() int {
	return int(p.sent.Load() / framesPerSec)
}

func (p *playback) run(vc *discordgo.VoiceConnection, prev *playback, resolver MediaResolver) {
	defer close(p.finished)
	if prev != nil {
		<-prev.finished
	}

	err := p.stream(vc, resolver)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		slog.Warn("playback failed", "guildID", p.guildID, "title", p.track.Title, "err", err)
	}
	p.cancel()
	p.done(err)
}

func (p *playback) stream(vc *discordgo.VoiceConnection, resolver MediaResolver) error {
	if err := p.ctx.Err(); err != nil {
		return err
	}

	info, err := resolver.GetInfo(p.ctx, p.track.Source)
	if err != nil {
		return err
	}
	media := AudioURL(info)
	if media == "" {
		return fmt.Errorf("%s: %w", p.track.Source, ErrNoMedia)
	}

	pcm, err := StartPCMStream(p.ctx, media)
	if err != nil {
		return err
	}
	defer pcm.Close()

	enc, err := NewEncoder()
	if err != nil {
		return err
	}
	defer enc.Close()

	if err := waitReady(p.ctx, vc); err != nil {
		return err
	}
	_ = vc.Speaking(true)
	defer vc.Speaking(false)

	ring := newPacketRing(ringPackets)
	prodCtx, stopProd := context.WithCancel(p.ctx)
	defer stopProd()
	produced := make(chan error, 1)
	go func() {
		produced <- produce(prodCtx, pcm.Reader(), enc, ring)
	}()

	sendErr := p.send(vc, ring)
	stopProd()
	ring.close()
	prodErr := <-produced
	if sendErr != nil {
		return sendErr
	}
	if prodErr != nil && !errors.Is(prodErr, context.Canceled) {
		return prodErr
	}
	return pcm.Err()
}

// produce encodes PCM into the ring until the input ends.
func produce(ctx context.Context, r io.Reader, enc *Encoder, ring *packetRing) error {
	defer ring.markEOS()
	br := bufio.NewReaderSize(r, 128*1024)
	frame := make([]byte, frameBytes)

	push := func(pkt []byte) error {
		for !ring.push(pkt) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(10 * time.Millisecond):
			}
		}
		return nil
	}

	for {
		n, err := io.ReadFull(br, frame)
		if errors.Is(err, io.EOF) {
			return enc.Flush(push)
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			// pad the tail with silence
			clear(frame[n:])
			if err := enc.Encode(frame, push); err != nil {
				return err
			}
			return enc.Flush(push)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read pcm: %w", err)
		}
		if err := enc.Encode(frame, push); err != nil {
			return err
		}
	}
}

// send paces packets to Discord at one per 20 ms.
func (p *playback) send(vc *discordgo.VoiceConnection, ring *packetRing) error {
	deadline := time.Now().Add(readyTimeout)
	for ring.buffered() < minBuffered && time.Now().Before(deadline) {
		select {
		case <-p.ctx.Done():
			return p.ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	dropped := 0
	for {
		if p.gate.isPaused() {
			_ = vc.Speaking(false)
			if err := p.gate.wait(p.ctx); err != nil {
				return err
			}
			_ = vc.Speaking(true)
		}

		pkt, ok := ring.pop(p.ctx)
		if !ok {
			return p.ctx.Err()
		}

		select {
		case <-p.ctx.Done():
			return p.ctx.Err()
		case <-ticker.C:
		}

		select {
		case <-p.ctx.Done():
			return p.ctx.Err()
		case vc.OpusSend <- pkt:
			p.sent.Add(1)
			dropped = 0
		case <-time.After(sendTimeout):
			dropped++
			slog.Debug("dropped packet", "guildID", p.guildID, "consecutive", dropped)
			if dropped >= maxConsecDropped {
				return ErrVoiceNotReady
			}
		}
	}
}

func waitReady(ctx context.Context, vc *discordgo.VoiceConnection) error {
	deadline := time.Now().Add(readyTimeout)
	for {
		vc.RLock()
		ready := vc.Ready
		vc.RUnlock()
		if ready {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrVoiceNotReady
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}
