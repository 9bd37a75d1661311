package player

import "context"

// Transport turns tracks into audio on one guild's voice connection.
//
// Start must not block on network I/O and must never invoke done
// synchronously: the session calls it while holding its lock, and done takes
// that same lock. done is called exactly once per returned Stream, with nil on
// a clean end of stream.
type Transport interface {
	Connect(ctx context.Context, channelID string) error
	Start(track Track, done func(err error)) (Stream, error)
	Close() error
}

// Stream is the handle of one started track. All methods are non-blocking
// signals.
type Stream interface {
	Pause()
	Resume()
	Stop()
	PositionSec() int
}

// TransportFactory builds the transport for a newly registered guild.
type TransportFactory func(guildID string) Transport
