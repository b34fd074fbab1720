package game

import "sync"

// LockCoordinator issues the mutual-exclusion scopes for the four lock
// domains. Ownership tables are guarded per group, with mutexes created on
// first use; counters, exchange requests and feature toggles each serialize
// behind one global mutex. Code that needs more than one domain must acquire
// them in the order toggles, counters, ownership, exchanges and never in
// reverse, or release the earlier scope before taking the later one.
type LockCoordinator struct {
	mu        sync.Mutex
	ownership map[string]*sync.Mutex

	counters  sync.Mutex
	exchanges sync.Mutex
	toggles   sync.Mutex
}

// NewLockCoordinator creates an empty coordinator.
func NewLockCoordinator() *LockCoordinator {
	return &LockCoordinator{ownership: make(map[string]*sync.Mutex)}
}

// OwnershipLock returns the mutex guarding one group's ownership table.
// Two actors touching the same group for the first time concurrently get
// the same mutex; the registry itself is lock-protected.
func (l *LockCoordinator) OwnershipLock(groupID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.ownership[groupID]
	if !ok {
		m = &sync.Mutex{}
		l.ownership[groupID] = m
	}
	return m
}

// CountersLock returns the global counters mutex.
func (l *LockCoordinator) CountersLock() *sync.Mutex { return &l.counters }

// ExchangesLock returns the global exchange-request mutex.
func (l *LockCoordinator) ExchangesLock() *sync.Mutex { return &l.exchanges }

// TogglesLock returns the global feature-toggle mutex.
func (l *LockCoordinator) TogglesLock() *sync.Mutex { return &l.toggles }
