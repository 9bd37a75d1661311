package player

import "time"

// Track is one playable item. It is passed around by value; nothing in this
// package hands out a pointer into the queue.
type Track struct {
	ID          string
	Source      string // page URL (resolved to a stream at start) or direct stream URL
	Title       string
	Artist      string
	Length      int // seconds, 0 when unknown
	IsLive      bool
	Thumbnail   string
	Playlist    string
	RequestedBy string
	AddedInChan string
}

func (t Track) Duration() time.Duration {
	return time.Duration(t.Length) * time.Second
}

type PlayerStatus int

const (
	StatusIdle PlayerStatus = iota
	StatusPlaying
	StatusPaused
)

func (s PlayerStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// QueueView is a point-in-time copy of a session's queue.
type QueueView struct {
	GuildID     string
	Status      PlayerStatus
	Loop        bool
	Current     *Track
	Pending     []Track
	PositionSec int
}

// Len counts the current track plus everything pending.
func (v QueueView) Len() int {
	n := len(v.Pending)
	if v.Current != nil {
		n++
	}
	return n
}

// TotalLength sums the known lengths of the pending tracks, in seconds.
func (v QueueView) TotalLength() int {
	total := 0
	for _, t := range v.Pending {
		total += t.Length
	}
	return total
}

// EnqueueOutcome tells the caller what an enqueue did, so it can decide what to
// announce.
type EnqueueOutcome struct {
	StartedPlayback bool
	Queued          int
	// Position is the 1-based pending position of the first queued track, or 0
	// when it became the current track.
	Position int
	// Stale is set when the ticket no longer matched a live session and nothing
	// was queued.
	Stale    bool
	StartErr error
}

// Ticket identifies a session at the moment a request started resolving.
type Ticket struct {
	GuildID    string
	Generation uint64
	Epoch      uint64
}
