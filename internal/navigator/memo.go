package navigator

import "github.com/seuros/funnelscope/internal/dataset"

const defaultMemoSize = 32

type memoKey struct {
	key  dataset.Key
	view View
	topN int
}

// memo caches rendered frames by every input they depend on, so a change of
// month, country or view can never serve a stale frame. The oldest entry is
// evicted once the cache is full.
type memo struct {
	limit   int
	order   []memoKey
	entries map[memoKey]Frame
}

func newMemo(limit int) *memo {
	if limit <= 0 {
		limit = defaultMemoSize
	}
	return &memo{
		limit:   limit,
		entries: make(map[memoKey]Frame, limit),
	}
}

func (m *memo) get(k memoKey) (Frame, bool) {
	frame, ok := m.entries[k]
	return frame, ok
}

func (m *memo) put(k memoKey, frame Frame) {
	if _, exists := m.entries[k]; exists {
		m.entries[k] = frame
		return
	}
	if len(m.order) >= m.limit {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.entries, oldest)
	}
	m.order = append(m.order, k)
	m.entries[k] = frame
}

func (m *memo) len() int { return len(m.entries) }
