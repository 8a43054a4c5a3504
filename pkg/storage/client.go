package storage

import (
	"context"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/photoblog/resize-images/pkg/errors"
	"github.com/photoblog/resize-images/pkg/pipeline"
)

// ObjectPutter is the subset of the S3 API used for publishing.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client publishes derivatives to an S3 bucket.
type Client struct {
	s3Client ObjectPutter
	bucket   string
	prefix   string
}

// NewClient creates an S3 client using the default credential chain.
func NewClient(ctx context.Context, bucket, region, prefix string) (*Client, error) {
	slog.Info("s3_client_init", "bucket", bucket, "region", region, "prefix", prefix)

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		slog.Error("aws_config_load_failed", "error", err)
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	return NewClientWithAPI(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewClientWithAPI creates a publisher around an existing S3 API value.
func NewClientWithAPI(api ObjectPutter, bucket, prefix string) *Client {
	return &Client{
		s3Client: api,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}
}

// Name identifies the publisher in outcomes and logs.
func (c *Client) Name() string {
	return "s3"
}

// Key returns the object key for a derivative role ("full" or "thumbs").
func (c *Client) Key(role, name string) string {
	if c.prefix == "" {
		return path.Join(role, name)
	}
	return path.Join(c.prefix, role, name)
}

// Deliver uploads both derivatives of a successful item.
func (c *Client) Deliver(ctx context.Context, outcome pipeline.Outcome) error {
	if err := c.Upload(ctx, outcome.Item.FullPath, c.Key("full", outcome.Item.OutputName)); err != nil {
		return err
	}
	return c.Upload(ctx, outcome.Item.ThumbPath, c.Key("thumbs", outcome.Item.OutputName))
}

// Upload puts the file at localPath under key.
func (c *Client) Upload(ctx context.Context, localPath, key string) error {
	slog.Info("s3_upload_start", "bucket", c.bucket, "key", key, "local_path", localPath)

	f, err := os.Open(localPath)
	if err != nil {
		slog.Error("local_file_open_failed", "path", localPath, "error", err)
		return errors.Wrap(err, "failed to open derivative")
	}
	defer f.Close()

	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(localPath))); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := c.s3Client.PutObject(ctx, input); err != nil {
		slog.Error("s3_put_object_failed", "key", key, "error", err)
		return errors.Wrap(err, "failed to put object to S3")
	}

	slog.Info("s3_upload_complete", "bucket", c.bucket, "key", key)
	return nil
}
