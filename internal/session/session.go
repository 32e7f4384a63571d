// Package session keeps one invite form per browser session and serializes
// every operation on it.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/invite-users/internal/invite"
	"github.com/ignite/invite-users/internal/pkg/logger"
)

const (
	// completeTimeout bounds how long Submit keeps trying to record a send
	// outcome once the batch went out.
	completeTimeout = 30 * time.Second
	// completeRetryInterval is the pause between those attempts.
	completeRetryInterval = 50 * time.Millisecond
)

// Store persists form state by session id.
type Store interface {
	// Lock grants exclusive access to a session until unlock is called.
	// It fails with invite.ErrSessionBusy when the session stays locked.
	Lock(ctx context.Context, id string) (unlock func(), err error)
	// Load returns invite.ErrSessionNotFound for unknown or expired ids.
	Load(ctx context.Context, id string) (invite.State, error)
	Save(ctx context.Context, id string, state invite.State) error
	Delete(ctx context.Context, id string) error
}

// Manager runs form operations against a Store.
type Manager struct {
	store Store
	newID func() string
}

// NewManager creates a manager over store.
func NewManager(store Store) *Manager {
	return &Manager{store: store, newID: uuid.NewString}
}

// Create starts a session with an empty form.
func (m *Manager) Create(ctx context.Context) (string, invite.State, error) {
	id := m.newID()
	state := invite.NewForm().State()
	if err := m.store.Save(ctx, id, state); err != nil {
		return "", invite.State{}, fmt.Errorf("create session: %w", err)
	}
	return id, state, nil
}

// Discard removes a session. Unknown ids are ignored.
func (m *Manager) Discard(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}

// Get returns the current state of a session.
func (m *Manager) Get(ctx context.Context, id string) (invite.State, error) {
	return m.store.Load(ctx, id)
}

// Do runs fn with exclusive access to the session's form and saves the
// result. The state is saved even when fn fails, since form operations
// that fail leave the form consistent.
func (m *Manager) Do(ctx context.Context, id string, fn func(*invite.Form) error) (invite.State, error) {
	unlock, err := m.store.Lock(ctx, id)
	if err != nil {
		return invite.State{}, err
	}
	defer unlock()

	state, err := m.store.Load(ctx, id)
	if err != nil {
		return invite.State{}, err
	}

	form := invite.FormFromState(state)
	fnErr := fn(form)

	state = form.State()
	if err := m.store.Save(ctx, id, state); err != nil {
		return invite.State{}, fmt.Errorf("save session: %w", err)
	}
	return state, fnErr
}

// Submit sends the session's valid entries through sender. The session is
// locked only while the submission starts and completes, not during the
// send itself; the submitting flag in the saved state keeps a second
// submission out meanwhile.
func (m *Manager) Submit(ctx context.Context, id string, sender invite.Sender) (invite.SendResult, invite.State, error) {
	var batch []invite.Invitation
	state, err := m.Do(ctx, id, func(f *invite.Form) error {
		var err error
		batch, err = f.BeginSubmit()
		return err
	})
	if err != nil {
		return invite.SendResult{}, state, err
	}

	res, sendErr := sender.SendInvitations(ctx, batch)
	if sendErr != nil {
		logger.Warn("invitation batch failed", "session", id, "count", len(batch), "error", sendErr)
	}

	var out invite.SendResult
	var outErr error
	state, err = m.complete(ctx, id, func(f *invite.Form) error {
		out, outErr = f.CompleteSubmit(batch, res, sendErr)
		return nil
	})
	switch {
	case errors.Is(err, invite.ErrSessionNotFound) && sendErr == nil && res.Success:
		// Session expired during the send; the batch still went out.
		return res, invite.State{}, nil
	case err != nil:
		return invite.SendResult{}, state, err
	}
	return out, state, outErr
}

// complete runs fn under the session lock until it sticks. It ignores
// cancellation of ctx and the store's lock wait, so a busy session or a
// store hiccup does not leave the form marked as submitting.
func (m *Manager) complete(ctx context.Context, id string, fn func(*invite.Form) error) (invite.State, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), completeTimeout)
	defer cancel()

	for attempt := 1; ; attempt++ {
		state, err := m.Do(ctx, id, fn)
		if err == nil || errors.Is(err, invite.ErrSessionNotFound) {
			return state, err
		}
		if attempt == 1 {
			logger.Warn("recording submit outcome failed, retrying", "session", id, "error", err)
		}
		select {
		case <-ctx.Done():
			logger.Error("recording submit outcome gave up", "session", id, "attempts", attempt, "error", err)
			return state, err
		case <-time.After(completeRetryInterval):
		}
	}
}
