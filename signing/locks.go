package signing

import "sync"

// docLocks serializes signing operations per document identity. Two
// signers reaching for the same document block each other; different
// documents proceed in parallel.
type docLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newDocLocks() *docLocks {
	return &docLocks{entries: make(map[string]*lockEntry)}
}

// lock acquires the per-document mutex and returns its release function.
// Entries are reference counted so the map does not grow with document
// history.
func (l *docLocks) lock(id string) func() {
	l.mu.Lock()
	entry, ok := l.entries[id]
	if !ok {
		entry = &lockEntry{}
		l.entries[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, id)
		}
		l.mu.Unlock()
	}
}
