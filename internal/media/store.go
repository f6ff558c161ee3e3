package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/config"
)

// BlobStore abstracts where uploaded bytes live. Production uses S3 behind
// a CDN domain; development writes to local disk and serves the files from
// the API under /media.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
	Ping(ctx context.Context) error
}

// NewStore builds the blob store selected by cfg.Type.
func NewStore(ctx context.Context, cfg config.MediaConfig) (BlobStore, error) {
	switch cfg.Type {
	case "s3":
		return NewS3Store(ctx, cfg.S3Bucket, cfg.AWSRegion, cfg.GetAWSProfile(), cfg.CDNDomain)
	case "local":
		return NewLocalStore(cfg.LocalPath, "/media")
	default:
		return nil, fmt.Errorf("unknown media storage type: %s", cfg.Type)
	}
}

// S3Store stores blobs in an S3 bucket.
type S3Store struct {
	client    *s3.Client
	bucket    string
	region    string
	cdnDomain string
}

// NewS3Store creates an S3-backed store. An empty profile uses the default
// credential chain (IAM role on ECS).
func NewS3Store(ctx context.Context, bucket, region, profile, cdnDomain string) (*S3Store, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
			awsconfig.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &S3Store{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		region:    region,
		cdnDomain: cdnDomain,
	}, nil
}

// Put uploads data under key. Keys are never rewritten, so the cache header
// allows a year.
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000"),
	})
	if err != nil {
		return fmt.Errorf("putting object to S3: %w", err)
	}
	return nil
}

// Get retrieves a stored object.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting object from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("reading S3 object body: %w", err)
	}
	return data, nil
}

// Delete removes a stored object. Deleting a missing key is not an error.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting object from S3: %w", err)
	}
	return nil
}

// URL returns the public URL for a key, preferring the CDN domain.
func (s *S3Store) URL(key string) string {
	if s.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", s.cdnDomain, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// Ping verifies the bucket is reachable.
func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	return err
}

// LocalStore keeps blobs on local disk for development.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates a disk-backed store rooted at root. Files are
// served by the API under baseURL.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating media directory: %w", err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Root returns the directory files are written under.
func (l *LocalStore) Root() string { return l.root }

// Put writes data to disk under key, creating parent directories as needed.
func (l *LocalStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	path := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// Get reads a stored file.
func (l *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a stored file. Deleting a missing key is not an error.
func (l *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing file: %w", err)
	}
	return nil
}

// URL returns the serving path for a key.
func (l *LocalStore) URL(key string) string {
	return l.baseURL + "/" + key
}

// Ping verifies the storage directory still exists.
func (l *LocalStore) Ping(ctx context.Context) error {
	_, err := os.Stat(l.root)
	return err
}
