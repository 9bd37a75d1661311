package player

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Session is one guild's queue and transport state. Every method takes the
// session mutex for its whole duration, so operations on one guild are
// linearizable. Nothing under the mutex blocks on network I/O.
type Session struct {
	guildID    string
	generation uint64
	transport  Transport
	onStart    func(guildID string, t Track)
	onIdle     func(s *Session)

	mu        sync.Mutex
	status    PlayerStatus
	loop      bool
	q         queue
	active    *activeStream
	seq       uint64
	epoch     uint64
	closed    bool
	holds     int // tickets handed out that have not enqueued or been released
	idleAfter time.Duration
	idleTimer *time.Timer
}

type activeStream struct {
	id     uint64
	stream Stream
}

func newSession(guildID string, generation uint64, transport Transport) *Session {
	return &Session{
		guildID:    guildID,
		generation: generation,
		transport:  transport,
		status:     StatusIdle,
	}
}

func (s *Session) GuildID() string { return s.guildID }

func (s *Session) Generation() uint64 { return s.generation }

// Ticket captures the session identity before a slow resolution starts.
func (s *Session) Ticket() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Ticket{GuildID: s.guildID, Generation: s.generation, Epoch: s.epoch}
}

// hold hands out a ticket and keeps the idle timer off until the request
// enqueues or is released.
func (s *Session) hold() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holds++
	s.cancelIdleLocked()
	return Ticket{GuildID: s.guildID, Generation: s.generation, Epoch: s.epoch}
}

func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
}

func (s *Session) releaseLocked() {
	if s.holds > 0 {
		s.holds--
	}
	if s.holds == 0 && s.status == StatusIdle && !s.closed {
		s.scheduleIdleLocked()
	}
}

func (s *Session) Status() PlayerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetIdleTimeout sets how long the session may sit idle before its manager
// tears it down. Zero disables the idle leave.
func (s *Session) SetIdleTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idleAfter = d
	if s.status == StatusIdle && !s.closed {
		s.scheduleIdleLocked()
	}
}

// Enqueue appends tracks in order, starting playback if the session was idle.
func (s *Session) Enqueue(tracks ...Track) EnqueueOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enqueueLocked(tracks)
}

// enqueueAt is Enqueue guarded by the clear epoch a ticket captured.
func (s *Session) enqueueAt(epoch uint64, tracks []Track) EnqueueOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.releaseLocked()
	if s.epoch != epoch {
		slog.Debug("dropping enqueue for cleared session", "guildID", s.guildID, "count", len(tracks))
		return EnqueueOutcome{Stale: true}
	}
	return s.enqueueLocked(tracks)
}

func (s *Session) enqueueLocked(tracks []Track) EnqueueOutcome {
	if s.closed {
		return EnqueueOutcome{Stale: true}
	}
	if len(tracks) == 0 {
		return EnqueueOutcome{}
	}

	out := EnqueueOutcome{Queued: len(tracks)}
	wasEmpty := s.q.push(tracks...)
	if !wasEmpty {
		out.Position = len(s.q.pending) - len(tracks) + 1
		return out
	}

	next, err := s.startNextLocked()
	out.StartedPlayback = next != nil
	out.StartErr = err
	return out
}

func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return ErrNoActiveSession
	case s.status == StatusIdle:
		return ErrNothingPlaying
	case s.status == StatusPaused:
		return ErrAlreadyPaused
	}
	s.status = StatusPaused
	if s.active != nil {
		s.active.stream.Pause()
	}
	return nil
}

func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrNoActiveSession
	}
	if s.status != StatusPaused {
		return ErrNotPaused
	}
	s.status = StatusPlaying
	if s.active != nil {
		s.active.stream.Resume()
	}
	return nil
}

// Skip drops the current track, paused or not, and starts the next one. It
// returns the new current track, or nil when the queue ran dry. Loop is
// per-track, so skipping turns it off.
func (s *Session) Skip() (*Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrNoActiveSession
	}
	if s.q.current == nil {
		return nil, ErrNothingPlaying
	}
	s.stopActiveLocked()
	s.loop = false
	next, err := s.startNextLocked()
	if err != nil {
		slog.Warn("skipped into unplayable tracks", "guildID", s.guildID, "err", err)
	}
	if next == nil {
		return nil, nil
	}
	cp := *next
	return &cp, nil
}

// ToggleLoop flips looping of the current track. Loop is per-track, so an idle
// session has nothing to loop and returns ErrNothingPlaying.
func (s *Session) ToggleLoop() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrNoActiveSession
	}
	if s.q.current == nil {
		return false, ErrNothingPlaying
	}
	s.loop = !s.loop
	return s.loop, nil
}

// Clear drops everything, stops the stream and invalidates outstanding
// tickets. It returns how many tracks were discarded, counting the current one.
func (s *Session) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	s.stopActiveLocked()
	n := s.q.clear()
	s.epoch++
	s.goIdleLocked()
	return n
}

func (s *Session) Snapshot() QueueView {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, pending := s.q.snapshot()
	v := QueueView{
		GuildID: s.guildID,
		Status:  s.status,
		Loop:    s.loop,
		Current: cur,
		Pending: pending,
	}
	if s.active != nil {
		v.PositionSec = s.active.stream.PositionSec()
	}
	return v
}

// finished handles a transport end-of-stream report. Reports for a stream that
// is no longer active were already accounted for by skip, clear or teardown.
func (s *Session) finished(id uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.active == nil || s.active.id != id {
		slog.Debug("ignoring stale stream end", "guildID", s.guildID, "stream", id)
		return
	}
	s.active = nil

	if err != nil {
		slog.Warn("stream ended with error", "guildID", s.guildID, "err", err)
	} else if s.loop && s.q.current != nil {
		serr := s.startLocked(*s.q.current)
		if serr == nil {
			return
		}
		slog.Warn("restarting looped track failed", "guildID", s.guildID, "err", serr)
	}

	s.loop = false
	if _, serr := s.startNextLocked(); serr != nil {
		slog.Warn("advancing queue hit unplayable tracks", "guildID", s.guildID, "err", serr)
	}
}

// startNextLocked advances until a track starts or the queue is empty. Tracks
// whose stream cannot start are dropped; the last such error is returned.
func (s *Session) startNextLocked() (*Track, error) {
	var lastErr error
	for {
		cur := s.q.advance()
		if cur == nil {
			s.goIdleLocked()
			return nil, lastErr
		}
		if err := s.startLocked(*cur); err != nil {
			slog.Warn("dropping track that failed to start", "guildID", s.guildID, "title", cur.Title, "err", err)
			lastErr = err
			continue
		}
		return cur, lastErr
	}
}

func (s *Session) startLocked(t Track) error {
	s.seq++
	id := s.seq
	st, err := s.transport.Start(t, func(err error) { s.finished(id, err) })
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransportStartFailed, err)
	}
	s.active = &activeStream{id: id, stream: st}
	s.status = StatusPlaying
	s.cancelIdleLocked()
	slog.Info("playback started", "guildID", s.guildID, "title", t.Title, "stream", id)
	if s.onStart != nil {
		go s.onStart(s.guildID, t)
	}
	return nil
}

func (s *Session) stopActiveLocked() {
	if s.active == nil {
		return
	}
	s.active.stream.Stop()
	s.active = nil
}

func (s *Session) goIdleLocked() {
	s.q.dropCurrent()
	s.status = StatusIdle
	s.loop = false
	s.scheduleIdleLocked()
}

func (s *Session) scheduleIdleLocked() {
	s.cancelIdleLocked()
	if s.idleAfter <= 0 || s.onIdle == nil || s.holds > 0 {
		return
	}
	s.idleTimer = time.AfterFunc(s.idleAfter, func() { s.onIdle(s) })
}

func (s *Session) cancelIdleLocked() {
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
}

// closeIfIdleLocked marks an idle session closed. The caller holds s.mu.
func (s *Session) closeIfIdleLocked() bool {
	if s.closed || s.status != StatusIdle || s.holds > 0 {
		return false
	}
	s.closed = true
	s.epoch++
	s.cancelIdleLocked()
	return true
}

// close stops playback, discards the queue and releases the transport.
func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopActiveLocked()
	s.q.clear()
	s.epoch++
	s.status = StatusIdle
	s.loop = false
	s.cancelIdleLocked()
	s.mu.Unlock()

	s.releaseTransport()
}

func (s *Session) releaseTransport() {
	if err := s.transport.Close(); err != nil {
		slog.Warn("closing transport failed", "guildID", s.guildID, "err", err)
	}
}
