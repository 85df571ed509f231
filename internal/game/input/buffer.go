package input

import "sync/atomic"

// Buffer holds the most recent snapshot captured on the frame clock until
// the next physics step consumes it.
//
// Invariant: Store publishes a whole snapshot in one pointer swap, so Load
// never observes a partially written snapshot.
type Buffer struct {
	latest atomic.Pointer[Snapshot]
}

// Store publishes a copy of s, replacing any unconsumed snapshot.
func (b *Buffer) Store(s Snapshot) {
	b.latest.Store(&s)
}

// Load returns the latest snapshot, or the zero snapshot if none was stored
// since the last Clear.
func (b *Buffer) Load() Snapshot {
	if p := b.latest.Load(); p != nil {
		return *p
	}
	return Snapshot{}
}

// Clear drops any buffered snapshot.
//
// Postcondition: Load returns the zero snapshot until the next Store.
func (b *Buffer) Clear() {
	b.latest.Store(nil)
}
