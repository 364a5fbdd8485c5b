// Package offload moves staged artifacts to durable object storage
// without ever blocking the sampling path.
package offload

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// Store is the durable object sink.
//
// Put writes body under key in bucket, one attempt per call; retry
// policy belongs to the caller (here: none).
type Store interface {
	Put(ctx context.Context, bucket, key, contentType string, body io.Reader) error
}

// S3Store implements Store on the AWS SDK upload manager
type S3Store struct {
	uploader *s3manager.Uploader
}

// NewS3Store creates a store for the given region.
//
// Credentials come from the ambient AWS chain (environment, shared
// config, instance role); the store never manages them.
func NewS3Store(region string) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("offload: failed to create AWS session: %w", err)
	}

	return &S3Store{uploader: s3manager.NewUploader(sess)}, nil
}

// Put uploads body to s3://bucket/key with the given content type
func (s *S3Store) Put(ctx context.Context, bucket, key, contentType string, body io.Reader) error {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("offload: S3 upload failed: %w", err)
	}
	return nil
}
