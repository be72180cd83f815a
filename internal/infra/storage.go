package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"pastel24h/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStore uploads generated documents to durable storage.
type ObjectStore interface {
	// Put stores body under key and returns the object's URI.
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// S3Store is an ObjectStore backed by any S3-compatible service (AWS S3, MinIO).
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store builds the client from config. It returns (nil, nil) when no
// bucket is configured: report PDFs then stay on local disk only.
func NewS3Store(cfg *config.Config) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, nil
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" || cfg.S3SecretKey != "" {
		if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
			return nil, errors.New("storage: S3_ACCESS_KEY and S3_SECRET_KEY must be set together")
		}
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load AWS config: %w", err)
	}

	endpoint := cfg.S3Endpoint
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
				endpoint = "https://" + endpoint
			}
			// Custom endpoints (MinIO) need path-style addressing.
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{client: client, bucket: cfg.S3Bucket}, nil
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("storage: put %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// guardedStore sends uploads through a Breaker so an unreachable bucket
// fails fast instead of stalling every report job on its retries.
type guardedStore struct {
	next    ObjectStore
	breaker *Breaker
}

// GuardStore wraps store with breaker. A nil store stays nil so callers can
// keep testing for "no object storage configured".
func GuardStore(store ObjectStore, breaker *Breaker) ObjectStore {
	if store == nil {
		return nil
	}
	if breaker == nil {
		return store
	}
	return &guardedStore{next: store, breaker: breaker}
}

func (g *guardedStore) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	var uri string
	err := g.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		uri, err = g.next.Put(ctx, key, contentType, body)
		return err
	})
	return uri, err
}
