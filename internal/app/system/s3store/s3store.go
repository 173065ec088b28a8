// Package s3store resolves stored object keys into time-limited S3 GET
// URLs for photo and document links.
package s3store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config selects the bucket and link lifetime.
type Config struct {
	Region string
	Bucket string
	Prefix string
	Expiry time.Duration
}

const defaultExpiry = 15 * time.Minute

// Store signs GET URLs against one bucket.
type Store struct {
	presign *s3.PresignClient
	cfg     Config
}

// New builds a Store from the ambient AWS credential chain.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3store: bucket is required")
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = defaultExpiry
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("s3store: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &Store{presign: s3.NewPresignClient(client), cfg: cfg}, nil
}

// ResolveSignedURL exchanges a stored object key for a presigned GET URL.
// The scope prefixes the key, keeping tenant partitions apart.
func (s *Store) ResolveSignedURL(ctx context.Context, scope, objectKey string) (string, error) {
	key := s.cfg.Prefix + objectKey
	if scope != "" {
		key = s.cfg.Prefix + scope + "/" + objectKey
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.cfg.Expiry))
	if err != nil {
		return "", fmt.Errorf("s3store: presign %q: %w", key, err)
	}
	return req.URL, nil
}
