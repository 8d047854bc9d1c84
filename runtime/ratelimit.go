package runtime

import "time"

// FixedWindow is a fixed-window counter guarding the chat-send operation.
// Deliberately coarse: a burst straddling a window boundary can reach twice
// the nominal rate, which is acceptable for abuse damping and keeps the
// state O(1) per connection.
//
// Not safe for concurrent use on its own; the registry owns one per session
// and mutates it under its lock.
type FixedWindow struct {
	limit       int
	window      time.Duration
	count       int
	windowStart time.Time
}

func NewFixedWindow(limit int, window time.Duration) *FixedWindow {
	return &FixedWindow{limit: limit, window: window}
}

// Allow reports whether another send fits in the current window and counts
// it if so. The count is left untouched on rejection, and the window resets
// exactly once per elapse.
func (w *FixedWindow) Allow(now time.Time) bool {
	if now.Sub(w.windowStart) >= w.window {
		w.count = 0
		w.windowStart = now
	}
	if w.count >= w.limit {
		return false
	}
	w.count++
	return true
}
