// Package keylock provides one mutex per string key.
//
// Services hold the lock of a channel scope across "write to the database,
// then publish the event", so that two concurrent writes to the same scope
// are published in the order they were committed. Writes to different
// scopes never wait on each other.
//
// Entries are reference counted and removed when the last holder unlocks,
// so the map only holds keys that are currently in use.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Locker is a set of named mutexes. The zero value is not usable; call New.
//
// The outer mu only guards the map and the reference counts; it is never
// held while waiting on a key's mutex. A caller increments refs, drops mu,
// then blocks on the entry's own mutex, so waiters on "channel-1" do not
// hold up a Lock("channel-2").
type Locker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// New creates an empty Locker.
func New() *Locker {
	return &Locker{locks: make(map[string]*entry)}
}

// Lock blocks until the mutex of key is held and returns its unlock func.
//
//	unlock := locks.Lock("channel-7")
//	defer unlock()
func (l *Locker) Lock(key string) (unlock func()) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.locks, key)
			}
			l.mu.Unlock()
		})
	}
}

// Len returns the number of keys currently locked or waited on.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
