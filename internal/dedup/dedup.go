// Package dedup remembers already-offloaded paths so a file create event
// observed twice is uploaded once.
package dedup

// Capacity bounds: eviction triggers past maxEntries and keeps the most
// recent keepEntries.
const (
	maxEntries  = 1000
	keepEntries = 500
)

// Set is a bounded, insertion-ordered set of offloaded paths.
//
// When the set grows past 1000 entries it is truncated to the 500 most
// recently inserted. The bound protects memory, not correctness: an
// evicted path that reappears is offloaded again.
//
// Not safe for concurrent use; the watch control loop is its only caller.
type Set struct {
	index map[string]struct{}
	order []string
}

// NewSet creates an empty set
func NewSet() *Set {
	return &Set{index: make(map[string]struct{})}
}

// Seen reports whether path has been recorded
func (s *Set) Seen(path string) bool {
	_, ok := s.index[path]
	return ok
}

// Add records path. Adding a recorded path is a no-op.
func (s *Set) Add(path string) {
	if _, ok := s.index[path]; ok {
		return
	}
	s.index[path] = struct{}{}
	s.order = append(s.order, path)

	if len(s.order) > maxEntries {
		cut := len(s.order) - keepEntries
		for _, old := range s.order[:cut] {
			delete(s.index, old)
		}
		// Copy so the truncated backing array is released
		s.order = append([]string(nil), s.order[cut:]...)
	}
}

// Len returns the number of recorded paths
func (s *Set) Len() int {
	return len(s.order)
}
