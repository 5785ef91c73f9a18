package bot

import "sync"

// userLocks serializes update handling per user id, closing the
// read-then-write races around conversation state and attempt counting.
// Entries are dropped as soon as the last holder releases them.
type userLocks struct {
	mu sync.Mutex
	m  map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{m: map[int64]*lockEntry{}}
}

func (l *userLocks) lock(id int64) {
	l.mu.Lock()
	e := l.m[id]
	if e == nil {
		e = &lockEntry{}
		l.m[id] = e
	}
	e.refs++
	l.mu.Unlock()
	e.mu.Lock()
}

func (l *userLocks) unlock(id int64) {
	l.mu.Lock()
	e := l.m[id]
	e.refs--
	if e.refs == 0 {
		delete(l.m, id)
	}
	l.mu.Unlock()
	e.mu.Unlock()
}
