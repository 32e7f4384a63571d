package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ignite/invite-users/internal/config"
	"github.com/ignite/invite-users/internal/invite"
)

// maxErrorBody bounds how much of a failed response is quoted in errors.
const maxErrorBody = 512

// WebhookSender posts each batch to the backend invitation endpoint as a
// JSON array and expects {"success": bool, "count": int} back.
type WebhookSender struct {
	client *http.Client
	url    string
	token  string
}

// NewWebhookSender creates a WebhookSender from cfg.
func NewWebhookSender(cfg config.WebhookConfig) *WebhookSender {
	return &WebhookSender{
		client: &http.Client{Timeout: cfg.Timeout()},
		url:    cfg.URL,
		token:  cfg.AuthToken,
	}
}

func (s *WebhookSender) Name() string { return "webhook" }

func (s *WebhookSender) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// SendInvitations implements invite.Sender.
func (s *WebhookSender) SendInvitations(ctx context.Context, invitations []invite.Invitation) (invite.SendResult, error) {
	body, err := json.Marshal(invitations)
	if err != nil {
		return invite.SendResult{}, fmt.Errorf("encode invitations: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return invite.SendResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return invite.SendResult{}, fmt.Errorf("post invitations: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return invite.SendResult{}, fmt.Errorf("invitation endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var res invite.SendResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return invite.SendResult{}, fmt.Errorf("decode invitation response: %w", err)
	}
	return res, nil
}
