package tui

// History remembers submitted lines for Up/Down recall.
type History struct {
	entries []string
	max     int
	back    int // 0 = fresh input, n = n-th most recent entry
}

// NewHistory creates a history holding at most max lines.
func NewHistory(max int) *History {
	return &History{entries: make([]string, 0, max), max: max}
}

// Push records a line. Repeating the latest line is a no-op.
func (h *History) Push(line string) {
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return
	}
	h.entries = append(h.entries, line)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// Prev steps back to an older line. It stays on the oldest line once
// reached, and returns false only when there is no history.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.back < len(h.entries) {
		h.back++
	}
	return h.entries[len(h.entries)-h.back], true
}

// Next steps forward to a newer line. It returns false when it steps past
// the newest line back to fresh input.
func (h *History) Next() (string, bool) {
	if h.back <= 1 {
		h.back = 0
		return "", false
	}
	h.back--
	return h.entries[len(h.entries)-h.back], true
}

// ResetCursor returns to fresh input.
func (h *History) ResetCursor() { h.back = 0 }

// Len returns the number of remembered lines.
func (h *History) Len() int { return len(h.entries) }
