package server

import "sync"

// The daemon's single mutual-exclusion primitive over the resident project.
//
// Acquisition is try-only: a busy lock reports failure immediately instead of
// queueing, so a slow operation (a large render, say) cannot serialize
// unrelated clients behind it. Callers that lose the race get an "operation
// in progress" error and decide their own retry policy.
//
// The holder id is recorded for diagnostics only; the lock is not reentrant.
type projectLock struct {
	mu     sync.Mutex
	held   bool
	holder string
}

// Attempts to take the lock. Never blocks.
func (l *projectLock) tryAcquire(holder string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		return false
	}
	l.held = true
	l.holder = holder
	return true
}

// Releases the lock.
func (l *projectLock) release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.held = false
	l.holder = ""
}

// Returns the current holder id, or an empty string when free.
func (l *projectLock) holderID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holder
}
