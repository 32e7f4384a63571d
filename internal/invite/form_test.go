package invite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ignite/invite-users/internal/invite"
	"github.com/ignite/invite-users/internal/mocks"
)

func TestForm_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("should clear entries and report count on success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sender := mocks.NewMockSender(ctrl)

		f := invite.NewForm()
		f.Add("a@b.com")

		sender.EXPECT().
			SendInvitations(gomock.Any(), []invite.Invitation{{Email: "a@b.com", Role: invite.RoleMember, IsValid: true}}).
			Return(invite.SendResult{Success: true, Count: 1}, nil).
			Times(1)

		res, err := f.Submit(ctx, sender)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Count)
		assert.Equal(t, 0, f.Len())
		assert.False(t, f.Submitting())
	})

	t.Run("should refuse locally when an entry is invalid", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sender := mocks.NewMockSender(ctrl)
		sender.EXPECT().SendInvitations(gomock.Any(), gomock.Any()).Times(0)

		f := invite.NewForm()
		f.Add("a@b.com")
		f.Add("broken")

		_, err := f.Submit(ctx, sender)
		assert.ErrorIs(t, err, invite.ErrInvalidEntries)
		assert.Equal(t, invite.KindLocalValidation, invite.KindOf(err))
		assert.Equal(t, 2, f.Len())
		assert.True(t, f.CanSubmit())
	})

	t.Run("should refuse locally when there is nothing to send", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sender := mocks.NewMockSender(ctrl)
		sender.EXPECT().SendInvitations(gomock.Any(), gomock.Any()).Times(0)

		_, err := invite.NewForm().Submit(ctx, sender)
		assert.ErrorIs(t, err, invite.ErrNoValidEmails)
	})

	t.Run("should keep entries when the backend fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sender := mocks.NewMockSender(ctrl)

		f := invite.NewForm()
		f.Paste("a@b.com, c@d.com")

		sender.EXPECT().
			SendInvitations(gomock.Any(), gomock.Len(2)).
			Return(invite.SendResult{}, errors.New("connection reset"))

		_, err := f.Submit(ctx, sender)
		assert.ErrorIs(t, err, invite.ErrSendFailed)
		assert.Equal(t, invite.KindSubmission, invite.KindOf(err))
		assert.Equal(t, 2, f.Len())
		assert.False(t, f.Submitting())
		assert.True(t, f.CanSubmit())
	})

	t.Run("should treat an unsuccessful result as a failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sender := mocks.NewMockSender(ctrl)

		f := invite.NewForm()
		f.Add("a@b.com")

		sender.EXPECT().
			SendInvitations(gomock.Any(), gomock.Any()).
			Return(invite.SendResult{Success: false}, nil)

		_, err := f.Submit(ctx, sender)
		assert.ErrorIs(t, err, invite.ErrSendFailed)
		assert.Equal(t, 1, f.Len())
	})

	t.Run("should carry each entry role into the batch", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sender := mocks.NewMockSender(ctrl)

		f := invite.NewForm()
		require.NoError(t, f.SelectRole(invite.RoleGuest))
		f.Add("a@b.com")
		f.Add("c@d.com")
		_, err := f.SetRole(f.Entries()[1].ID, invite.RoleAdmin)
		require.NoError(t, err)

		sender.EXPECT().
			SendInvitations(gomock.Any(), []invite.Invitation{
				{Email: "a@b.com", Role: invite.RoleGuest, IsValid: true},
				{Email: "c@d.com", Role: invite.RoleAdmin, IsValid: true},
			}).
			Return(invite.SendResult{Success: true}, nil)

		res, err := f.Submit(ctx, sender)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Count, "count falls back to the batch size")
	})
}

func TestForm_SingleSubmissionInFlight(t *testing.T) {
	f := invite.NewForm()
	f.Add("a@b.com")

	batch, err := f.BeginSubmit()
	require.NoError(t, err)
	assert.Len(t, batch, 1)
	assert.True(t, f.Submitting())
	assert.False(t, f.CanSubmit())

	_, err = f.BeginSubmit()
	assert.ErrorIs(t, err, invite.ErrSubmissionInProgress)
	assert.Equal(t, invite.KindConflict, invite.KindOf(err))

	res, err := f.CompleteSubmit(batch, invite.SendResult{Success: true, Count: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.False(t, f.Submitting())
}

func TestForm_StaleSubmission(t *testing.T) {
	entries := []invite.Entry{{ID: "1", Email: "a@b.com", Role: invite.RoleMember, IsValid: true}}

	t.Run("should keep a recent submission in flight", func(t *testing.T) {
		f := invite.FormFromState(invite.State{
			Entries:         entries,
			Submitting:      true,
			SubmitStartedAt: time.Now().Add(-time.Minute),
		})
		assert.True(t, f.Submitting())
		assert.False(t, f.State().CanSubmit)

		_, err := f.BeginSubmit()
		assert.ErrorIs(t, err, invite.ErrSubmissionInProgress)
	})

	t.Run("should release a submission that never completed", func(t *testing.T) {
		f := invite.FormFromState(invite.State{
			Entries:         entries,
			Submitting:      true,
			SubmitStartedAt: time.Now().Add(-invite.StaleSubmission - time.Second),
		})
		assert.False(t, f.Submitting())
		assert.True(t, f.State().CanSubmit)

		batch, err := f.BeginSubmit()
		require.NoError(t, err)
		assert.Len(t, batch, 1)
		s := f.State()
		assert.True(t, s.Submitting)
		assert.WithinDuration(t, time.Now(), s.SubmitStartedAt, time.Second)
	})

	t.Run("should release a flag without a start time", func(t *testing.T) {
		f := invite.FormFromState(invite.State{Entries: entries, Submitting: true})
		assert.False(t, f.Submitting())

		_, err := f.BeginSubmit()
		assert.NoError(t, err)
	})
}

func TestForm_StateCanSubmit(t *testing.T) {
	f := invite.NewForm()
	assert.False(t, f.State().CanSubmit)

	f.Add("broken")
	assert.True(t, f.State().CanSubmit, "invalid entries are refused on submit, not by the control")

	batch, err := f.BeginSubmit()
	require.ErrorIs(t, err, invite.ErrInvalidEntries)
	assert.Nil(t, batch)

	f.Clear()
	f.Add("a@b.com")
	_, err = f.BeginSubmit()
	require.NoError(t, err)
	assert.False(t, f.State().CanSubmit)
	assert.False(t, f.State().SubmitStartedAt.IsZero())

	_, err = f.CompleteSubmit(nil, invite.SendResult{}, errors.New("timeout"))
	require.Error(t, err)
	s := f.State()
	assert.True(t, s.CanSubmit)
	assert.True(t, s.SubmitStartedAt.IsZero())
}

func TestForm_StateRoundTrip(t *testing.T) {
	f := invite.NewForm()
	require.NoError(t, f.SelectRole(invite.RoleAdmin))
	f.Paste("a@b.com; bad@x.")
	f.Input("pending")

	s := f.State()
	assert.True(t, s.HasInvalid)
	assert.Equal(t, "pending", s.Buffer)

	// A tampered validity flag is recomputed on restore.
	s.Entries[1].IsValid = true
	g := invite.FormFromState(s)

	assert.Equal(t, f.Entries(), g.Entries())
	assert.Equal(t, invite.RoleAdmin, g.SelectedRole())
	assert.Equal(t, "pending", g.Buffer())
	assert.True(t, g.HasInvalid())
}
