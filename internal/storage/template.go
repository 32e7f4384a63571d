package storage

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/invite-users/internal/config"
	"github.com/ignite/invite-users/internal/invite"
	"github.com/ignite/invite-users/internal/pkg/logger"
)

type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// TemplateObject describes the workbook being published.
type TemplateObject struct {
	FileName    string
	ContentType string
	Build       func() ([]byte, error)
}

// TemplatePublisher mirrors the import template to S3 and hands out
// short-lived presigned download URLs. The workbook is uploaded on first
// use and again after a failed upload.
type TemplatePublisher struct {
	objects objectAPI
	presign presignAPI
	bucket  string
	key     string
	expiry  time.Duration
	object  TemplateObject

	mu        sync.Mutex
	published bool
}

// NewTemplatePublisher creates a publisher from cfg using the default AWS
// credential chain or the configured profile.
func NewTemplatePublisher(ctx context.Context, cfg config.TemplateConfig, object TemplateObject) (*TemplatePublisher, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if profile := cfg.GetAWSProfile(); profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return newTemplatePublisher(client, s3.NewPresignClient(client), cfg, object), nil
}

func newTemplatePublisher(objects objectAPI, presign presignAPI, cfg config.TemplateConfig, object TemplateObject) *TemplatePublisher {
	return &TemplatePublisher{
		objects: objects,
		presign: presign,
		bucket:  cfg.S3Bucket,
		key:     cfg.S3Key,
		expiry:  cfg.URLExpiry(),
		object:  object,
	}
}

// Publish builds the workbook and uploads it, replacing any earlier copy.
func (p *TemplatePublisher) Publish(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.publishLocked(ctx)
}

func (p *TemplatePublisher) publishLocked(ctx context.Context) error {
	data, err := p.object.Build()
	if err != nil {
		return err
	}

	_, err = p.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(p.bucket),
		Key:                aws.String(p.key),
		Body:               bytes.NewReader(data),
		ContentType:        aws.String(p.object.ContentType),
		ContentDisposition: aws.String(attachment(p.object.FileName)),
	})
	if err != nil {
		return fmt.Errorf("%w: putting object to S3: %w", invite.ErrTemplateBuild, err)
	}

	p.published = true
	logger.Info("template published", "bucket", p.bucket, "key", p.key, "bytes", len(data))
	return nil
}

// URL returns a presigned download URL, publishing the workbook first if
// that has not happened yet.
func (p *TemplatePublisher) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	if !p.published {
		if err := p.publishLocked(ctx); err != nil {
			p.mu.Unlock()
			return "", err
		}
	}
	p.mu.Unlock()

	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(p.bucket),
		Key:                        aws.String(p.key),
		ResponseContentDisposition: aws.String(attachment(p.object.FileName)),
	}, s3.WithPresignExpires(p.expiry))
	if err != nil {
		return "", fmt.Errorf("%w: presigning template URL: %w", invite.ErrTemplateBuild, err)
	}
	return req.URL, nil
}

func attachment(name string) string {
	return fmt.Sprintf(`attachment; filename="%s"`, name)
}
