package memlock

import (
	"context"
	"sync"

	"pet-clinic-appointments/internal/ports/lock"
)

type slot struct {
	ch   chan struct{}
	refs int
}

// Locker es un mutex por clave dentro del proceso. Respeta la cancelación
// del contexto mientras espera.
type Locker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

func New() *Locker {
	return &Locker{slots: make(map[string]*slot)}
}

func (l *Locker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = lock.NormalizeKeys(keys)

	held := make([]*slot, 0, len(keys))
	heldKeys := make([]string, 0, len(keys))

	releaseHeld := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i].ch
			l.unref(heldKeys[i])
		}
	}

	for _, k := range keys {
		s := l.ref(k)
		select {
		case s.ch <- struct{}{}:
			held = append(held, s)
			heldKeys = append(heldKeys, k)
		case <-ctx.Done():
			l.unref(k)
			releaseHeld()
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() { once.Do(releaseHeld) }, nil
}

func (l *Locker) ref(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *Locker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		return
	}
	s.refs--
	if s.refs <= 0 {
		delete(l.slots, key)
	}
}

// held devuelve cuántas claves tienen waiters o dueño (tests).
func (l *Locker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
