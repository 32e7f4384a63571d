package sender

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/ignite/invite-users/internal/invite"
)

const upsertInvitation = `
	INSERT INTO invitations (email, role, invited_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (email) DO UPDATE
	SET role = EXCLUDED.role, invited_at = EXCLUDED.invited_at`

// PostgresSender records invitations in the invitations table, where a
// downstream mailer picks them up. A batch is written in one transaction.
type PostgresSender struct {
	db *sql.DB
}

// NewPostgresSender wraps an open database handle.
func NewPostgresSender(db *sql.DB) *PostgresSender {
	return &PostgresSender{db: db}
}

// OpenPostgresSender connects to databaseURL and verifies the connection.
func OpenPostgresSender(ctx context.Context, databaseURL string) (*PostgresSender, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresSender(db), nil
}

func (s *PostgresSender) Name() string { return "postgres" }

func (s *PostgresSender) Close() error { return s.db.Close() }

// Ping checks the database connection.
func (s *PostgresSender) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// SendInvitations implements invite.Sender.
func (s *PostgresSender) SendInvitations(ctx context.Context, invitations []invite.Invitation) (invite.SendResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return invite.SendResult{}, fmt.Errorf("begin invitation batch: %w", err)
	}

	for _, inv := range invitations {
		if _, err := tx.ExecContext(ctx, upsertInvitation, inv.Email, string(inv.Role)); err != nil {
			tx.Rollback()
			return invite.SendResult{}, fmt.Errorf("insert invitation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return invite.SendResult{}, fmt.Errorf("commit invitation batch: %w", err)
	}
	return invite.SendResult{Success: true, Count: len(invitations)}, nil
}
