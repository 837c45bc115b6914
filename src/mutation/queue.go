package mutation

import (
	"context"
	"sync"
)

// keyQueue serialises mutations per record key: at most one holder per key,
// waiters proceed in arrival order as the channel allows.
type keyQueue struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func newKeyQueue() *keyQueue {
	return &keyQueue{locks: make(map[string]*keyLock)}
}

func (q *keyQueue) acquire(ctx context.Context, key string) error {
	q.mu.Lock()
	l, ok := q.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		q.locks[key] = l
	}
	l.refs++
	q.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		q.drop(key, l)
		return ctx.Err()
	}
}

func (q *keyQueue) release(key string) {
	q.mu.Lock()
	l, ok := q.locks[key]
	q.mu.Unlock()
	if !ok {
		return
	}
	<-l.ch
	q.drop(key, l)
}

func (q *keyQueue) drop(key string, l *keyLock) {
	q.mu.Lock()
	defer q.mu.Unlock()
	l.refs--
	if l.refs == 0 && q.locks[key] == l {
		delete(q.locks, key)
	}
}

// pending reports the number of holders plus waiters on key.
func (q *keyQueue) pending(key string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if l, ok := q.locks[key]; ok {
		return l.refs
	}
	return 0
}
