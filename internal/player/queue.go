package player

import "slices"

// queue holds a guild's pending tracks and the current slot. It is not safe
// for concurrent use; Session guards it with its mutex.
type queue struct {
	pending []Track
	current *Track
}

// push appends tracks in order and reports whether the queue had nothing
// current and nothing pending before the call.
func (q *queue) push(tracks ...Track) (wasEmpty bool) {
	wasEmpty = q.current == nil && len(q.pending) == 0
	q.pending = append(q.pending, tracks...)
	return wasEmpty
}

// advance moves the head of pending into the current slot. The previous
// current is dropped. It returns the new current, or nil when pending was
// empty.
func (q *queue) advance() *Track {
	if len(q.pending) == 0 {
		q.current = nil
		return nil
	}
	next := q.pending[0]
	q.pending[0] = Track{}
	q.pending = q.pending[1:]
	q.current = &next
	return q.current
}

// dropCurrent clears the current slot without touching pending.
func (q *queue) dropCurrent() {
	q.current = nil
}

// clear empties the queue and returns how many tracks were discarded,
// counting the current one.
func (q *queue) clear() int {
	n := len(q.pending)
	if q.current != nil {
		n++
	}
	q.pending = nil
	q.current = nil
	return n
}

func (q *queue) len() int {
	n := len(q.pending)
	if q.current != nil {
		n++
	}
	return n
}

// snapshot copies the queue so the caller can read it without the lock.
func (q *queue) snapshot() (*Track, []Track) {
	var cur *Track
	if q.current != nil {
		c := *q.current
		cur = &c
	}
	return cur, slices.Clone(q.pending)
}
