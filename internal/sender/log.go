package sender

import (
	"context"
	"time"

	"github.com/ignite/invite-users/internal/invite"
	"github.com/ignite/invite-users/internal/pkg/logger"
)

// LogSender is the development stand-in for a delivery backend. It waits
// for the configured delay, logs every invitation and reports success.
type LogSender struct {
	delay time.Duration
}

// NewLogSender creates a LogSender with the given simulated latency.
func NewLogSender(delay time.Duration) *LogSender {
	return &LogSender{delay: delay}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Close() error { return nil }

// SendInvitations implements invite.Sender.
func (s *LogSender) SendInvitations(ctx context.Context, invitations []invite.Invitation) (invite.SendResult, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return invite.SendResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	for _, inv := range invitations {
		logger.Info("invitation sent", "sender", s.Name(), "email", inv.Email, "role", inv.Role)
	}
	return invite.SendResult{Success: true, Count: len(invitations)}, nil
}
