package player

import (
	"context"
	"log/slog"
	"sync"
)

// Manager is the process-wide registry of guild sessions. The map is the only
// state shared across guilds; each session serializes its own operations.
type Manager struct {
	newTransport TransportFactory
	onTrackStart func(guildID string, t Track)

	mu       sync.Mutex
	sessions map[string]*Session
	nextGen  uint64
}

type Option func(*Manager)

// WithTrackStartHook registers fn to be called, on its own goroutine, each time
// a session starts streaming a track.
func WithTrackStartHook(fn func(guildID string, t Track)) Option {
	return func(m *Manager) { m.onTrackStart = fn }
}

func NewManager(newTransport TransportFactory, opts ...Option) *Manager {
	m := &Manager{
		newTransport: newTransport,
		sessions:     make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetOrCreate returns the guild's session, creating an idle one if none
// exists.
func (m *Manager) GetOrCreate(guildID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[guildID]; ok {
		return s
	}
	m.nextGen++
	s := newSession(guildID, m.nextGen, m.newTransport(guildID))
	s.onStart = m.onTrackStart
	s.onIdle = m.closeIfIdle
	m.sessions[guildID] = s
	slog.Debug("session created", "guildID", guildID, "generation", s.generation)
	return s
}

// Get looks a session up without creating one.
func (m *Manager) Get(guildID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[guildID]
	return s, ok
}

// Remove tears the guild's session down. Removing an unknown guild is a no-op.
func (m *Manager) Remove(guildID string) bool {
	m.mu.Lock()
	s, ok := m.sessions[guildID]
	delete(m.sessions, guildID)
	m.mu.Unlock()

	if !ok {
		return false
	}
	s.close()
	slog.Info("session removed", "guildID", guildID, "generation", s.generation)
	return true
}

// Join makes sure the guild has a session and its transport is connected to
// channelID.
func (m *Manager) Join(ctx context.Context, guildID, channelID string) (*Session, error) {
	s := m.GetOrCreate(guildID)
	if err := s.transport.Connect(ctx, channelID); err != nil {
		return s, err
	}
	return s, nil
}

func (m *Manager) Leave(guildID string) bool {
	return m.Remove(guildID)
}

// Begin captures a ticket for a request that is about to resolve media. The
// session is created if needed and will not idle out while the ticket is
// outstanding. Every ticket must be passed to Enqueue, EnqueueMany or Release.
func (m *Manager) Begin(guildID string) Ticket {
	return m.GetOrCreate(guildID).hold()
}

// Release gives up a ticket whose request will not enqueue anything.
func (m *Manager) Release(t Ticket) {
	s, ok := m.Get(t.GuildID)
	if !ok || s.generation != t.Generation {
		return
	}
	s.release()
}

func (m *Manager) Enqueue(t Ticket, track Track) EnqueueOutcome {
	return m.EnqueueMany(t, []Track{track})
}

// EnqueueMany queues tracks against the session the ticket was taken from. If
// that session was left, replaced or cleared since, nothing is queued and the
// outcome is marked stale.
func (m *Manager) EnqueueMany(t Ticket, tracks []Track) EnqueueOutcome {
	s, ok := m.Get(t.GuildID)
	if !ok || s.generation != t.Generation {
		slog.Debug("dropping enqueue for stale ticket", "guildID", t.GuildID, "generation", t.Generation)
		return EnqueueOutcome{Stale: true}
	}
	return s.enqueueAt(t.Epoch, tracks)
}

func (m *Manager) Pause(guildID string) error {
	s, ok := m.Get(guildID)
	if !ok {
		return ErrNoActiveSession
	}
	return s.Pause()
}

func (m *Manager) Resume(guildID string) error {
	s, ok := m.Get(guildID)
	if !ok {
		return ErrNoActiveSession
	}
	return s.Resume()
}

func (m *Manager) Skip(guildID string) (*Track, error) {
	s, ok := m.Get(guildID)
	if !ok {
		return nil, ErrNoActiveSession
	}
	return s.Skip()
}

func (m *Manager) ToggleLoop(guildID string) (bool, error) {
	s, ok := m.Get(guildID)
	if !ok {
		return false, ErrNoActiveSession
	}
	return s.ToggleLoop()
}

func (m *Manager) Clear(guildID string) int {
	s, ok := m.Get(guildID)
	if !ok {
		return 0
	}
	return s.Clear()
}

func (m *Manager) Snapshot(guildID string) (QueueView, bool) {
	s, ok := m.Get(guildID)
	if !ok {
		return QueueView{}, false
	}
	return s.Snapshot(), true
}

// Len reports how many guilds have a session.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown tears every session down.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.close()
	}
}

// closeIfIdle is the idle timer callback. Lock order is manager then session.
func (m *Manager) closeIfIdle(s *Session) {
	m.mu.Lock()
	cur, ok := m.sessions[s.guildID]
	if !ok || cur != s {
		m.mu.Unlock()
		return
	}
	s.mu.Lock()
	closed := s.closeIfIdleLocked()
	s.mu.Unlock()
	if closed {
		delete(m.sessions, s.guildID)
	}
	m.mu.Unlock()

	if closed {
		slog.Info("left voice after idling", "guildID", s.guildID)
		s.releaseTransport()
	}
}
