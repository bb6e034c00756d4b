package session

import "sync"

type chatLock struct {
	mu   sync.Mutex
	refs int
}

// Locker hands out one mutex per chat. Entries are dropped once nobody holds or waits on them.
type Locker struct {
	mu    sync.Mutex
	locks map[int64]*chatLock
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[int64]*chatLock)}
}

// Lock blocks until chatID is free and returns the matching unlock func.
func (l *Locker) Lock(chatID int64) (unlock func()) {
	l.mu.Lock()
	cl, ok := l.locks[chatID]
	if !ok {
		cl = &chatLock{}
		l.locks[chatID] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			cl.mu.Unlock()
			l.mu.Lock()
			cl.refs--
			if cl.refs == 0 {
				delete(l.locks, chatID)
			}
			l.mu.Unlock()
		})
	}
}

// Held reports how many chats currently have a holder or waiter.
func (l *Locker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
