package service

import "sync"

// dateLocks is the in-process half of the per-date mutual exclusion. The
// database advisory lock covers other processes.
type dateLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newDateLocks() *dateLocks {
	return &dateLocks{held: make(map[string]struct{})}
}

func (l *dateLocks) tryLock(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

func (l *dateLocks) unlock(key string) {
	l.mu.Lock()
	delete(l.held, key)
	l.mu.Unlock()
}

func (l *dateLocks) isHeld(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}
