package vocab

import (
	"maps"
	"slices"
	"sync"
)

// Store is the concurrency-safe key → canonical value mapping.
type Store struct {
	keyer Keyer

	mu      sync.RWMutex
	entries map[string]string
	learned map[string]struct{}
	version uint64

	changed chan struct{}
}

// NewStore returns an empty store using keyer for lookups.
func NewStore(keyer Keyer) *Store {
	return &Store{
		keyer:   keyer,
		entries: make(map[string]string),
		learned: make(map[string]struct{}),
		changed: make(chan struct{}, 1),
	}
}

// Key normalizes value with the store's key rules.
func (s *Store) Key(value string) string {
	return s.keyer.Key(value)
}

// Lookup returns the canonical value for key.
func (s *Store) Lookup(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.entries[key]
	return value, ok
}

// SetIfAbsent records canonical for key unless the key is already mapped.
// It returns the value the key maps to afterwards and whether canonical was
// stored.
func (s *Store) SetIfAbsent(key, canonical string) (string, bool) {
	s.mu.Lock()
	if existing, ok := s.entries[key]; ok {
		s.mu.Unlock()
		return existing, false
	}
	s.entries[key] = canonical
	s.learned[key] = struct{}{}
	s.version++
	s.mu.Unlock()

	s.notify()
	return canonical, true
}

// Merge adds every entry of m whose key (re-derived through the store's
// Keyer) is not yet present. Existing keys are never overwritten. Entries are
// visited in sorted key order so collisions after re-keying resolve
// deterministically. It returns the number of keys added.
func (s *Store) Merge(m map[string]string) int {
	if len(m) == 0 {
		return 0
	}
	added := 0
	s.mu.Lock()
	for _, raw := range slices.Sorted(maps.Keys(m)) {
		key := s.keyer.Key(raw)
		if _, ok := s.entries[key]; ok {
			continue
		}
		s.entries[key] = m[raw]
		added++
	}
	if added > 0 {
		s.version++
	}
	s.mu.Unlock()

	if added > 0 {
		s.notify()
	}
	return added
}

// Snapshot returns a copy of every entry.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.entries)
}

// Learned returns the keys answered through SetIfAbsent during this run, sorted.
func (s *Store) Learned() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.learned))
}

// Canonicals returns the distinct canonical values, sorted.
func (s *Store) Canonicals() []string {
	s.mu.RLock()
	seen := make(map[string]struct{}, len(s.entries))
	for _, v := range s.entries {
		seen[v] = struct{}{}
	}
	s.mu.RUnlock()
	return slices.Sorted(maps.Keys(seen))
}

// Len returns the number of keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Version increases with every mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Changed delivers a signal after one or more mutations. Signals coalesce:
// a receiver must re-read the store rather than count signals.
func (s *Store) Changed() <-chan struct{} {
	return s.changed
}

func (s *Store) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}
