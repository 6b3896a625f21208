package teller

import (
	"sync"

	"github.com/google/uuid"
)

// accountLocks serializes mutating operations per account id. Operations on
// unrelated accounts do not contend. Entries are reference-counted so the map
// does not grow with the number of accounts ever touched.
type accountLocks struct {
	mu sync.Mutex
	m  map[uuid.UUID]*accountLock
}

type accountLock struct {
	mu   sync.Mutex
	refs int
}

func newAccountLocks() *accountLocks {
	return &accountLocks{m: make(map[uuid.UUID]*accountLock)}
}

// lock blocks until the account's lock is held and returns the release func.
// The release must run on every exit path, including validation failures.
func (l *accountLocks) lock(id uuid.UUID) (unlock func()) {
	l.mu.Lock()
	e, ok := l.m[id]
	if !ok {
		e = &accountLock{}
		l.m[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}
