package keeper

import "sync"

// feedLocks hands out one mutex per asset id.
type feedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newFeedLocks() *feedLocks {
	return &feedLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the asset's mutex and returns its release func.
func (l *feedLocks) lock(assetID string) func() {
	l.mu.Lock()
	m, ok := l.locks[assetID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[assetID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
