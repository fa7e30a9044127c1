package walk

import "sync"

// cycleGuard tracks which real (symlink-resolved) directories have
// already been entered, keyed by an xxhash digest of the resolved path
// rather than the string itself — cheap to compare and to hold in bulk
// for a large tree (spec.md §4.4, symlink cycle detection).
type cycleGuard struct {
	mu   sync.Mutex
	seen map[uint64]bool
}

func newCycleGuard() *cycleGuard {
	return &cycleGuard{seen: make(map[uint64]bool)}
}

// visit reports whether key has not been seen before, marking it seen as
// a side effect. Safe for concurrent use by walk.Run's goroutines.
func (c *cycleGuard) visit(key uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen[key] {
		return false
	}
	c.seen[key] = true
	return true
}
