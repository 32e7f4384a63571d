package invite

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
)

//go:generate go run go.uber.org/mock/mockgen -source=form.go -destination=../mocks/mock_sender.go -package=mocks

// Invitation is one address handed to the delivery backend.
type Invitation struct {
	Email   string `json:"email"`
	Role    Role   `json:"role"`
	IsValid bool   `json:"isValid"`
}

// SendResult is what the delivery backend reports for a batch.
type SendResult struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

// Sender delivers a batch of invitations. A batch either succeeds as a
// whole or fails; partial delivery is not reported.
type Sender interface {
	SendInvitations(ctx context.Context, invitations []Invitation) (SendResult, error)
}

// StaleSubmission is how long a submission may stay in flight before the
// form stops treating it as running.
const StaleSubmission = 5 * time.Minute

// State is a serialisable snapshot of a Form.
type State struct {
	Buffer          string    `json:"buffer"`
	SelectedRole    Role      `json:"selectedRole"`
	Entries         []Entry   `json:"entries"`
	Submitting      bool      `json:"submitting"`
	SubmitStartedAt time.Time `json:"submitStartedAt,omitzero"`
	HasInvalid      bool      `json:"hasInvalid"`
	CanSubmit       bool      `json:"canSubmit"`
}

// Form is one invite form instance: the collector plus the submission flag.
// Like Collector it expects a single writer.
type Form struct {
	*Collector
	submitting bool
	startedAt  time.Time
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{Collector: NewCollector()}
}

// FormFromState rebuilds a form from a snapshot.
func FormFromState(s State) *Form {
	f := NewForm()
	f.restore(s.Buffer, s.SelectedRole, s.Entries)
	f.submitting = s.Submitting
	f.startedAt = s.SubmitStartedAt
	return f
}

// State snapshots the form.
func (f *Form) State() State {
	s := State{
		Buffer:       f.Buffer(),
		SelectedRole: f.SelectedRole(),
		Entries:      f.Entries(),
		Submitting:   f.Submitting(),
		HasInvalid:   f.HasInvalid(),
		CanSubmit:    f.CanSubmit(),
	}
	if s.Submitting {
		s.SubmitStartedAt = f.startedAt
	}
	return s
}

// Submitting reports whether a submission is in flight. A flag older than
// StaleSubmission, or one without a start time, no longer counts.
func (f *Form) Submitting() bool {
	return f.submitting && !f.startedAt.IsZero() && time.Since(f.startedAt) < StaleSubmission
}

// CanSubmit reports whether the submit control should be enabled.
func (f *Form) CanSubmit() bool { return f.Len() > 0 && !f.Submitting() }

// =============================================================================
// SUBMISSION
// =============================================================================

// BeginSubmit checks the submit preconditions and marks the form as
// submitting. The returned invitations must be passed to CompleteSubmit
// once the send finished.
func (f *Form) BeginSubmit() ([]Invitation, error) {
	if f.Submitting() {
		return nil, ErrSubmissionInProgress
	}
	if f.HasInvalid() {
		return nil, ErrInvalidEntries
	}
	valid := lo.Filter(f.entries, func(e Entry, _ int) bool { return e.IsValid })
	if len(valid) == 0 {
		return nil, ErrNoValidEmails
	}
	f.submitting = true
	f.startedAt = time.Now()
	return lo.Map(valid, func(e Entry, _ int) Invitation {
		return Invitation{Email: e.Email, Role: e.Role, IsValid: true}
	}), nil
}

// CompleteSubmit records the outcome of a send started by BeginSubmit. On
// success every entry is cleared; on failure the entries are kept so the
// user can retry.
func (f *Form) CompleteSubmit(invitations []Invitation, res SendResult, sendErr error) (SendResult, error) {
	f.submitting = false
	f.startedAt = time.Time{}
	if sendErr != nil {
		return SendResult{}, fmt.Errorf("%w: %w", ErrSendFailed, sendErr)
	}
	if !res.Success {
		return SendResult{}, fmt.Errorf("%w: backend rejected the batch", ErrSendFailed)
	}
	if res.Count == 0 {
		res.Count = len(invitations)
	}
	f.Clear()
	return res, nil
}

// Submit runs a whole submission against sender.
func (f *Form) Submit(ctx context.Context, sender Sender) (SendResult, error) {
	invitations, err := f.BeginSubmit()
	if err != nil {
		return SendResult{}, err
	}
	res, err := sender.SendInvitations(ctx, invitations)
	return f.CompleteSubmit(invitations, res, err)
}
