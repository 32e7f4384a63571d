package sender

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/osteele/liquid"

	"github.com/ignite/invite-users/internal/config"
	"github.com/ignite/invite-users/internal/invite"
	"github.com/ignite/invite-users/internal/pkg/logger"
)

// sesAPI is the part of the SES v2 client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender emails every invitation through AWS SES. SES lacks a bulk
// send for personalised content, so messages go out one by one and the
// first failure aborts the batch.
type SESSender struct {
	client  sesAPI
	cfg     config.SESConfig
	subject *liquid.Template
	body    *liquid.Template
}

// NewSESSender creates an SES sender. Static credentials are used when
// configured, otherwise the default AWS credential chain.
func NewSESSender(ctx context.Context, cfg config.SESConfig) (*SESSender, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return newSESSender(sesv2.NewFromConfig(awsCfg), cfg)
}

func newSESSender(client sesAPI, cfg config.SESConfig) (*SESSender, error) {
	engine := liquid.NewEngine()
	subject, err := engine.ParseString(cfg.Subject)
	if err != nil {
		return nil, fmt.Errorf("parse subject template: %w", err)
	}
	body, err := engine.ParseString(cfg.Body)
	if err != nil {
		return nil, fmt.Errorf("parse body template: %w", err)
	}
	return &SESSender{client: client, cfg: cfg, subject: subject, body: body}, nil
}

func (s *SESSender) Name() string { return "ses" }

func (s *SESSender) Close() error { return nil }

// SendInvitations implements invite.Sender.
func (s *SESSender) SendInvitations(ctx context.Context, invitations []invite.Invitation) (invite.SendResult, error) {
	if s.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout())
		defer cancel()
	}

	for _, inv := range invitations {
		input, err := s.message(inv)
		if err != nil {
			return invite.SendResult{}, err
		}

		out, err := s.client.SendEmail(ctx, input)
		if err != nil {
			logger.Error("ses send failed", "email", inv.Email, "error", err)
			return invite.SendResult{}, fmt.Errorf("ses send to %s: %w", logger.RedactEmail(inv.Email), err)
		}
		logger.Debug("ses invitation sent", "email", inv.Email, "message_id", aws.ToString(out.MessageId))
	}
	return invite.SendResult{Success: true, Count: len(invitations)}, nil
}

func (s *SESSender) message(inv invite.Invitation) (*sesv2.SendEmailInput, error) {
	bindings := map[string]interface{}{
		"email":            inv.Email,
		"role":             string(inv.Role),
		"role_label":       inv.Role.Label(),
		"role_description": inv.Role.Description(),
		"accept_url":       s.cfg.AcceptURL,
	}

	subject, err := s.subject.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("render subject: %w", err)
	}
	body, err := s.body.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}

	from := s.cfg.FromEmail
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)
	}

	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{inv.Email}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("kind"), Value: aws.String("invitation")},
			{Name: aws.String("role"), Value: aws.String(string(inv.Role))},
		},
	}, nil
}
