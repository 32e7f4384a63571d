package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/invite-users/internal/config"
	"github.com/ignite/invite-users/internal/invite"
)

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	bodies  [][]byte
	putErr  error
	gets    []*s3.GetObjectInput
	expires time.Duration
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	f.gets = append(f.gets, in)
	return &v4.PresignedHTTPRequest{URL: "https://bucket.s3.amazonaws.com/" + aws.ToString(in.Key) + "?X-Amz-Signature=abc"}, nil
}

func testPublisher(f *fakeS3) *TemplatePublisher {
	cfg := config.Default().Template
	cfg.S3Bucket = "invite-assets"
	return newTemplatePublisher(f, f, cfg, TemplateObject{
		FileName:    "invite-users-template.xlsx",
		ContentType: "application/octet-stream",
		Build:       func() ([]byte, error) { return []byte("workbook"), nil },
	})
}

func TestTemplatePublisher_URLPublishesOnce(t *testing.T) {
	ctx := context.Background()
	f := &fakeS3{}
	p := testPublisher(f)

	url, err := p.URL(ctx)
	require.NoError(t, err)
	assert.Contains(t, url, "templates/invite-users-template.xlsx")

	_, err = p.URL(ctx)
	require.NoError(t, err)

	require.Len(t, f.puts, 1)
	assert.Equal(t, "invite-assets", aws.ToString(f.puts[0].Bucket))
	assert.Equal(t, `attachment; filename="invite-users-template.xlsx"`, aws.ToString(f.puts[0].ContentDisposition))
	assert.Equal(t, []byte("workbook"), f.bodies[0])

	assert.Len(t, f.gets, 2)
	assert.Equal(t, 15*time.Minute, f.expires)
}

func TestTemplatePublisher_RetriesAfterFailedUpload(t *testing.T) {
	ctx := context.Background()
	f := &fakeS3{putErr: errors.New("access denied")}
	p := testPublisher(f)

	_, err := p.URL(ctx)
	assert.ErrorIs(t, err, invite.ErrTemplateBuild)
	assert.Equal(t, invite.KindDownload, invite.KindOf(err))
	assert.Empty(t, f.gets)

	f.putErr = nil
	_, err = p.URL(ctx)
	require.NoError(t, err)
	assert.Len(t, f.puts, 1)
}

func TestTemplatePublisher_BuildFailure(t *testing.T) {
	f := &fakeS3{}
	p := testPublisher(f)
	p.object.Build = func() ([]byte, error) { return nil, invite.ErrTemplateBuild }

	err := p.Publish(context.Background())
	assert.ErrorIs(t, err, invite.ErrTemplateBuild)
	assert.Empty(t, f.puts)
}
