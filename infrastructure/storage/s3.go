// Package storage provides object storage backends for documentation content.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/bibliotheca/gateway/domain/document"
	"github.com/bibliotheca/gateway/internal/config"
)

// S3Store reads documents from and uploads archives to an S3 bucket.
// Documents live at {prefix}{projectID}/{branch}/{key}; an uploaded branch
// archive is stored as {prefix}{projectID}/{branch}.zip.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewS3Store creates an S3Store. Static credentials are used when both keys
// are configured; otherwise the default AWS credential chain applies.
func NewS3Store(ctx context.Context, cfg config.S3Config, logger *slog.Logger) (*S3Store, error) {
	if cfg.Bucket() == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region()),
	}
	if cfg.HasStaticCredentials() {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey(), cfg.SecretKey(), ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle()
		if cfg.Endpoint() != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint())
		}
	})

	return &S3Store{
		client: client,
		bucket: cfg.Bucket(),
		prefix: cfg.Prefix(),
		logger: logger,
	}, nil
}

// DocumentKey returns the object key of a document.
func (s *S3Store) DocumentKey(projectID, branch, key string) string {
	return s.prefix + path.Join(projectID, branch, key)
}

// ArchiveKey returns the object key of an uploaded branch archive.
func (s *S3Store) ArchiveKey(projectID, branch string) string {
	return s.prefix + path.Join(projectID, branch) + ".zip"
}

// Get returns the raw bytes of a document, or document.ErrNotFound.
func (s *S3Store) Get(ctx context.Context, projectID, branch, key string) ([]byte, error) {
	objectKey := s.DocumentKey(projectID, branch, key)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", document.ErrNotFound, key)
		}
		return nil, fmt.Errorf("get object %s: %w", objectKey, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", objectKey, err)
	}
	return data, nil
}

// Upload stores the archive of a branch.
func (s *S3Store) Upload(ctx context.Context, projectID, branch string, archive io.Reader) error {
	objectKey := s.ArchiveKey(projectID, branch)

	// Request signing needs a seekable body.
	body, ok := archive.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(archive)
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}
		body = bytes.NewReader(data)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String("application/zip"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", objectKey, err)
	}

	s.logger.Debug("archive stored",
		slog.String("bucket", s.bucket),
		slog.String("key", objectKey),
	)
	return nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
