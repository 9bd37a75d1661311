package player

import "errors"

var (
	ErrNoActiveSession      = errors.New("no active session")
	ErrNothingPlaying       = errors.New("nothing is playing")
	ErrNotPaused            = errors.New("not paused")
	ErrAlreadyPaused        = errors.New("already paused")
	ErrResolutionFailed     = errors.New("could not resolve media")
	ErrTransportStartFailed = errors.New("could not start stream")
)
