package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/asticode/go-astiav"
	"github.com/sonroyaalmerol/poorjimmy/internal/utils"
)

const (
	sampleRate = 48000
	channels   = 2
	// frameSamples is 20 ms of audio per channel, the unit Discord expects.
	frameSamples = 960
	frameBytes   = frameSamples * channels * 2
	framesPerSec = sampleRate / frameSamples
)

// PCMStreamer decodes a remote media URL into interleaved s16le stereo 48 kHz
// PCM, readable from Reader.
type PCMStreamer struct {
	fc       *astiav.FormatContext
	audio    *astiav.Stream
	dec      *astiav.CodecContext
	swr      *astiav.SoftwareResampleContext
	srcFrame *astiav.Frame
	dstFrame *astiav.Frame
	pr       *io.PipeReader
	pw       *io.PipeWriter
	cancel   context.CancelFunc
	finished chan struct{}

	closeOnce sync.Once
	errMu     sync.Mutex
	runErr    error
}

// StartPCMStream opens inputURL and starts decoding in the background.
func StartPCMStream(ctx context.Context, inputURL string) (*PCMStreamer, error) {
	fc := astiav.AllocFormatContext()
	if fc == nil {
		return nil, errors.New("alloc format context")
	}

	dict := astiav.NewDictionary()
	defer dict.Free()
	_ = dict.Set("reconnect", "1", 0)
	_ = dict.Set("reconnect_streamed", "1", 0)
	_ = dict.Set("reconnect_delay_max", "5", 0)
	if strings.HasPrefix(inputURL, "http") {
		_ = dict.Set("headers", utils.FFmpegHeaders(nil), 0)
	}

	if err := fc.OpenInput(inputURL, nil, dict); err != nil {
		fc.Free()
		return nil, fmt.Errorf("open input: %w", err)
	}
	ps := &PCMStreamer{fc: fc, finished: make(chan struct{})}

	if err := fc.FindStreamInfo(nil); err != nil {
		ps.free()
		return nil, fmt.Errorf("find stream info: %w", err)
	}
	st, codec, err := fc.FindBestStream(astiav.MediaTypeAudio, -1, -1)
	if err != nil {
		ps.free()
		return nil, fmt.Errorf("find best audio stream: %w", err)
	}
	if st == nil || codec == nil {
		ps.free()
		return nil, errors.New("no audio stream found")
	}
	ps.audio = st

	if ps.dec = astiav.AllocCodecContext(codec); ps.dec == nil {
		ps.free()
		return nil, errors.New("alloc codec context")
	}
	if err := ps.dec.FromCodecParameters(st.CodecParameters()); err != nil {
		ps.free()
		return nil, fmt.Errorf("codec from params: %w", err)
	}
	ps.dec.SetTimeBase(st.TimeBase())
	if err := ps.dec.Open(codec, nil); err != nil {
		ps.free()
		return nil, fmt.Errorf("open decoder: %w", err)
	}

	ps.swr = astiav.AllocSoftwareResampleContext()
	ps.srcFrame = astiav.AllocFrame()
	ps.dstFrame = astiav.AllocFrame()
	if ps.swr == nil || ps.srcFrame == nil || ps.dstFrame == nil {
		ps.free()
		return nil, errors.New("alloc resampler")
	}

	ps.pr, ps.pw = io.Pipe()
	runCtx, cancel := context.WithCancel(ctx)
	ps.cancel = cancel
	go ps.run(runCtx)
	return ps, nil
}

func (s *PCMStreamer) Reader() io.Reader { return s.pr }

// Err reports why decoding stopped early, if it did.
func (s *PCMStreamer) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.runErr
}

// Close stops decoding and releases the FFmpeg contexts.
func (s *PCMStreamer) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		_ = s.pr.Close()
		<-s.finished
		s.free()
	})
}

func (s *PCMStreamer) free() {
	if s.srcFrame != nil {
		s.srcFrame.Free()
	}
	if s.dstFrame != nil {
		s.dstFrame.Free()
	}
	if s.swr != nil {
		s.swr.Free()
	}
	if s.dec != nil {
		s.dec.Free()
	}
	if s.fc != nil {
		s.fc.CloseInput()
		s.fc.Free()
	}
}

func (s *PCMStreamer) run(ctx context.Context) {
	defer close(s.finished)
	defer func() { _ = s.pw.CloseWithError(s.Err()) }()

	packet := astiav.AllocPacket()
	defer packet.Free()

	for {
		if err := ctx.Err(); err != nil {
			s.setErr(err)
			return
		}

		packet.Unref()
		if err := s.fc.ReadFrame(packet); err != nil {
			if errors.Is(err, astiav.ErrEof) {
				_ = s.dec.SendPacket(nil)
				if err := s.drain(); err != nil {
					s.setErr(err)
				}
				return
			}
			if errors.Is(err, astiav.ErrEagain) {
				continue
			}
			s.setErr(fmt.Errorf("read frame: %w", err))
			return
		}
		if packet.StreamIndex() != s.audio.Index() {
			continue
		}
		if err := s.dec.SendPacket(packet); err != nil && !errors.Is(err, astiav.ErrEagain) {
			s.setErr(fmt.Errorf("send packet: %w", err))
			return
		}
		if err := s.drain(); err != nil {
			s.setErr(err)
			return
		}
	}
}

// drain converts every frame the decoder has ready.
func (s *PCMStreamer) drain() error {
	for {
		s.srcFrame.Unref()
		if err := s.dec.ReceiveFrame(s.srcFrame); err != nil {
			if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
				return nil
			}
			return fmt.Errorf("receive frame: %w", err)
		}
		if err := s.writeFrame(s.srcFrame); err != nil {
			return err
		}
	}
}

func (s *PCMStreamer) writeFrame(src *astiav.Frame) error {
	s.dstFrame.Unref()
	s.dstFrame.SetChannelLayout(astiav.ChannelLayoutStereo)
	s.dstFrame.SetSampleRate(sampleRate)
	s.dstFrame.SetSampleFormat(astiav.SampleFormatS16)
	// leave headroom for upsampling and resampler delay
	nb := src.NbSamples()
	if rate := src.SampleRate(); rate > 0 {
		nb = nb*sampleRate/rate + 256
	}
	s.dstFrame.SetNbSamples(nb)
	if err := s.dstFrame.AllocBuffer(0); err != nil {
		return fmt.Errorf("dst alloc buffer: %w", err)
	}
	if err := s.swr.ConvertFrame(src, s.dstFrame); err != nil {
		return fmt.Errorf("swr convert: %w", err)
	}
	b, err := s.dstFrame.Data().Bytes(0)
	if err != nil {
		return fmt.Errorf("dst bytes: %w", err)
	}
	if _, err := s.pw.Write(b); err != nil {
		return err
	}
	return nil
}

func (s *PCMStreamer) setErr(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.runErr == nil {
		s.runErr = err
	}
}
