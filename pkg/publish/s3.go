// Package publish uploads finished renders to S3-compatible object storage.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/df07/go-weekend-raytracer/pkg/config"
	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/output"
)

// UploadTimeout bounds a single upload
const UploadTimeout = 30 * time.Second

// ErrNotConfigured is returned when no bucket is set
var ErrNotConfigured = errors.New("s3 publishing is not configured")

// Publisher uploads render files to a bucket
type Publisher struct {
	client s3iface.S3API
	bucket string
	cdnURL string
	logger core.Logger
}

// NewPublisher opens an S3 session for cfg. Path-style addressing is forced
// so MinIO and other S3-compatible endpoints work.
func NewPublisher(cfg config.S3Config, logger core.Logger) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	s3Config := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.AccessKey != "" {
		s3Config.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		s3Config.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(s3Config)
	if err != nil {
		return nil, fmt.Errorf("creating s3 session: %w", err)
	}

	return NewPublisherWithClient(s3.New(sess), cfg.Bucket, cfg.CDNURL, logger), nil
}

// NewPublisherWithClient creates a publisher around an existing client
func NewPublisherWithClient(client s3iface.S3API, bucket, cdnURL string, logger core.Logger) *Publisher {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Publisher{
		client: client,
		bucket: bucket,
		cdnURL: strings.TrimRight(cdnURL, "/"),
		logger: logger,
	}
}

// RenderKey returns the object key for a render file of a scene
func RenderKey(sceneName, fileName string) string {
	return path.Join("renders", sceneName, fileName)
}

// Upload stores data under key and returns its public location
func (p *Publisher) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	size := int64(len(data))
	_, err := p.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           aws.String(s3.ObjectCannedACLPublicRead),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	p.logger.Printf("Uploaded %s to s3://%s (%d bytes)\n", key, p.bucket, size)
	return p.URL(key), nil
}

// UploadFile uploads a render file, deriving the content type from its extension
func (p *Publisher) UploadFile(ctx context.Context, filePath, sceneName string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filePath, err)
	}

	contentType := "application/octet-stream"
	if format, err := output.FormatFromPath(filePath); err == nil {
		contentType = format.ContentType()
	}

	return p.Upload(ctx, RenderKey(sceneName, filepath.Base(filePath)), data, contentType)
}

// URL returns where key can be fetched from
func (p *Publisher) URL(key string) string {
	if p.cdnURL != "" {
		return p.cdnURL + "/" + key
	}
	return fmt.Sprintf("s3://%s/%s", p.bucket, key)
}
