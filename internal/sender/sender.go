// Package sender implements the send-invitations operation behind
// invite.Sender. Each driver treats a batch as a unit: it either reports
// success for the whole batch or returns an error. None of them retry.
package sender

import (
	"context"
	"fmt"

	"github.com/ignite/invite-users/internal/config"
	"github.com/ignite/invite-users/internal/invite"
)

// Sender is an invite.Sender owning resources that must be released.
type Sender interface {
	invite.Sender
	Name() string
	Close() error
}

// New builds the sender selected by cfg.Driver.
func New(ctx context.Context, cfg config.DeliveryConfig) (Sender, error) {
	switch cfg.Driver {
	case config.DriverSES:
		return NewSESSender(ctx, cfg.SES)
	case config.DriverPostgres:
		return OpenPostgresSender(ctx, cfg.Postgres.DatabaseURL)
	case config.DriverWebhook:
		return NewWebhookSender(cfg.Webhook), nil
	case config.DriverLog:
		return NewLogSender(cfg.Log.Delay()), nil
	default:
		return nil, fmt.Errorf("unknown delivery driver %q", cfg.Driver)
	}
}
