package servo

import "time"

// Entry is one recorded position
type Entry struct {
	Timestamp time.Time
	Degrees   float64
}

// History is the append-only movement log of one servo.
//
// With no limit it grows for the lifetime of the servo. With a limit it
// keeps only the most recent entries in a ring.
type History struct {
	items []Entry
	head  int
	size  int
	limit int
}

// NewHistory creates a history. limit <= 0 means unbounded.
func NewHistory(limit int) *History {
	if limit < 0 {
		limit = 0
	}
	h := &History{limit: limit}
	if limit > 0 {
		h.items = make([]Entry, limit)
	}
	return h
}

// Append records an entry
func (h *History) Append(e Entry) {
	if h.limit == 0 {
		h.items = append(h.items, e)
		h.size++
		return
	}

	h.items[(h.head+h.size)%h.limit] = e
	if h.size < h.limit {
		h.size++
	} else {
		h.head = (h.head + 1) % h.limit
	}
}

// Last returns the most recent entry, if any
func (h *History) Last() (Entry, bool) {
	if h.size == 0 {
		return Entry{}, false
	}
	if h.limit == 0 {
		return h.items[h.size-1], true
	}
	return h.items[(h.head+h.size-1)%h.limit], true
}

// Len returns the number of entries held
func (h *History) Len() int {
	return h.size
}

// Entries returns the held entries in chronological order
func (h *History) Entries() []Entry {
	out := make([]Entry, h.size)
	if h.limit == 0 {
		copy(out, h.items)
		return out
	}
	for i := 0; i < h.size; i++ {
		out[i] = h.items[(h.head+i)%h.limit]
	}
	return out
}
