package session

import (
	"context"
	"sync"
	"time"

	"github.com/ignite/invite-users/internal/invite"
)

// MemoryStore keeps sessions in process. Each session has its own lock;
// idle sessions expire after the TTL and are removed by Sweep.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]memState
	locks  map[string]*keyLock
	ttl    time.Duration
	wait   time.Duration
	now    func() time.Time
}

type memState struct {
	state   invite.State
	expires time.Time
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

// NewMemoryStore creates a store whose sessions live for ttl after their
// last save. Lock waits up to wait for a busy session.
func NewMemoryStore(ttl, wait time.Duration) *MemoryStore {
	return &MemoryStore{
		states: make(map[string]memState),
		locks:  make(map[string]*keyLock),
		ttl:    ttl,
		wait:   wait,
		now:    time.Now,
	}
}

// Lock implements Store.
func (s *MemoryStore) Lock(ctx context.Context, id string) (func(), error) {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &keyLock{sem: make(chan struct{}, 1)}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	unlock := func() {
		<-l.sem
		s.unref(id, l)
	}

	select {
	case l.sem <- struct{}{}:
		return unlock, nil
	default:
	}

	timer := time.NewTimer(s.wait)
	defer timer.Stop()

	select {
	case l.sem <- struct{}{}:
		return unlock, nil
	case <-ctx.Done():
		s.unref(id, l)
		return nil, ctx.Err()
	case <-timer.C:
		s.unref(id, l)
		return nil, invite.ErrSessionBusy
	}
}

func (s *MemoryStore) unref(id string, l *keyLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, id string) (invite.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[id]
	if !ok {
		return invite.State{}, invite.ErrSessionNotFound
	}
	if !s.now().Before(st.expires) {
		delete(s.states, id)
		return invite.State{}, invite.ErrSessionNotFound
	}
	return st.state, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, id string, state invite.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[id] = memState{state: state, expires: s.now().Add(s.ttl)}
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// Sweep drops expired sessions and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, st := range s.states {
		if !now.Before(st.expires) {
			delete(s.states, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
