package repository

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Repository fetches a descriptor object from Amazon S3.
//
// Authentication uses the AWS SDK default credential chain:
//   - Environment variables (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY)
//   - Shared credentials file (~/.aws/credentials)
//   - IAM role (for EC2/ECS/Lambda)
type S3Repository struct {
	bucket string
	key    string

	getObject func(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// NewS3Repository creates a repository from an S3 URL.
//
// URL format: s3://bucket/path/to/build.hcl
func NewS3Repository(url string) (*S3Repository, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, err
	}
	if key == "" || strings.HasSuffix(key, "/") {
		return nil, fmt.Errorf("invalid S3 URL: missing object key: %s", url)
	}

	return &S3Repository{
		bucket:    bucket,
		key:       key,
		getObject: getS3Object,
	}, nil
}

// Protocol returns "s3".
func (r *S3Repository) Protocol() string {
	return "s3"
}

// Bucket returns the bucket name.
func (r *S3Repository) Bucket() string {
	return r.bucket
}

// Key returns the object key.
func (r *S3Repository) Key() string {
	return r.key
}

// Fetch downloads the descriptor object.
func (r *S3Repository) Fetch(ctx context.Context) (*Document, error) {
	body, err := r.getObject(ctx, r.bucket, r.key)
	if err != nil {
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", r.bucket, r.key, err)
	}
	defer body.Close()

	data, err := readDescriptor(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}

	return &Document{Name: baseName(r.key), Data: data}, nil
}

func getS3Object(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

// parseS3URL parses an S3 URL into bucket and key.
// URL format: s3://bucket/path/to/object
func parseS3URL(url string) (bucket, key string, err error) {
	path, ok := strings.CutPrefix(url, "s3://")
	if !ok {
		return "", "", fmt.Errorf("invalid S3 URL: must start with s3://")
	}

	bucket, key, _ = strings.Cut(path, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("invalid S3 URL: missing bucket name")
	}
	return bucket, key, nil
}
