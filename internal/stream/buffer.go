package stream

import (
	"context"
	"sync"
)

// packetRing is a bounded FIFO of Opus packets between the encoder goroutine
// and the sender.
type packetRing struct {
	mu       sync.Mutex
	packets  [][]byte
	head     int
	size     int
	closed   bool
	eos      bool
	notEmpty *sync.Cond
}

func newPacketRing(capacity int) *packetRing {
	r := &packetRing{packets: make([][]byte, capacity)}
	r.notEmpty = sync.NewCond(&r.mu)
	return r
}

// push copies pkt in. It reports false when the ring is full or finished.
func (r *packetRing) push(pkt []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.eos || r.size == len(r.packets) {
		return false
	}
	r.packets[(r.head+r.size)%len(r.packets)] = append([]byte(nil), pkt...)
	r.size++
	r.notEmpty.Signal()
	return true
}

// pop waits for the next packet. It reports false once the producer marked
// the end and everything was consumed, or once the ring is closed.
func (r *packetRing) pop(ctx context.Context) ([]byte, bool) {
	stop := context.AfterFunc(ctx, r.close)
	defer stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		if r.closed {
			return nil, false
		}
		if r.size > 0 {
			pkt := r.packets[r.head]
			r.packets[r.head] = nil
			r.head = (r.head + 1) % len(r.packets)
			r.size--
			return pkt, true
		}
		if r.eos {
			return nil, false
		}
		r.notEmpty.Wait()
	}
}

func (r *packetRing) buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

func (r *packetRing) markEOS() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.eos = true
	r.notEmpty.Broadcast()
}

func (r *packetRing) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.notEmpty.Broadcast()
}

// gate blocks the sender while playback is paused.
type gate struct {
	mu     sync.Mutex
	paused bool
	open   chan struct{}
}

func (g *gate) pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused {
		g.paused = true
		g.open = make(chan struct{})
	}
}

func (g *gate) resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		g.paused = false
		close(g.open)
	}
}

// wait returns immediately when not paused, otherwise when resumed or ctx ends.
func (g *gate) wait(ctx context.Context) error {
	g.mu.Lock()
	if !g.paused {
		g.mu.Unlock()
		return nil
	}
	open := g.open
	g.mu.Unlock()

	select {
	case <-open:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gate) isPaused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}
