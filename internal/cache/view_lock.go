package cache

import "sync"

type viewLock struct {
	mu   sync.Mutex
	refs int
}

// viewLocks serializes updates of one view id within this process.
type viewLocks struct {
	mu    sync.Mutex
	locks map[string]*viewLock
}

func (l *viewLocks) lock(viewID string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*viewLock)
	}
	vl, ok := l.locks[viewID]
	if !ok {
		vl = &viewLock{}
		l.locks[viewID] = vl
	}
	vl.refs++
	l.mu.Unlock()

	vl.mu.Lock()
	return func() {
		vl.mu.Unlock()
		l.mu.Lock()
		vl.refs--
		if vl.refs == 0 {
			delete(l.locks, viewID)
		}
		l.mu.Unlock()
	}
}

func (l *viewLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
