package player

import (
	"context"
	"errors"
	"sync"
)

var errBroken = errors.New("broken source")

type fakeTransport struct {
	mu        sync.Mutex
	streams   []*fakeStream
	failing   map[string]bool
	channel   string
	closed    int
	connectFn func(channelID string) error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{failing: map[string]bool{}}
}

func (f *fakeTransport) Connect(_ context.Context, channelID string) error {
	if f.connectFn != nil {
		if err := f.connectFn(channelID); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channel = channelID
	return nil
}

func (f *fakeTransport) Start(t Track, done func(error)) (Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[t.Title] {
		return nil, errBroken
	}
	st := &fakeStream{track: t, done: done}
	f.streams = append(f.streams, st)
	return st, nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeTransport) fail(title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[title] = true
}

func (f *fakeTransport) started() []*fakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*fakeStream, len(f.streams))
	copy(out, f.streams)
	return out
}

func (f *fakeTransport) last() *fakeStream {
	all := f.started()
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

// live counts streams that were neither stopped nor finished.
func (f *fakeTransport) live() int {
	n := 0
	for _, st := range f.started() {
		if st.isLive() {
			n++
		}
	}
	return n
}

func (f *fakeTransport) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeStream struct {
	track Track
	done  func(error)

	mu       sync.Mutex
	paused   bool
	stopped  bool
	finished bool
}

func (s *fakeStream) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

func (s *fakeStream) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

func (s *fakeStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

func (s *fakeStream) PositionSec() int { return 7 }

// finish reports the end of the stream the way a sender goroutine would.
func (s *fakeStream) finish(err error) {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
	s.done(err)
}

func (s *fakeStream) isLive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.stopped && !s.finished
}

func (s *fakeStream) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func tracks(titles ...string) []Track {
	out := make([]Track, 0, len(titles))
	for _, t := range titles {
		out = append(out, Track{ID: t, Title: t, Source: "https://example.com/" + t})
	}
	return out
}

func titles(ts []Track) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Title)
	}
	return out
}

func currentTitle(v QueueView) string {
	if v.Current == nil {
		return ""
	}
	return v.Current.Title
}
