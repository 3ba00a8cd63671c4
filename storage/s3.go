package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"mobility-synth/models"
)

// ObjectPutter is the subset of *s3.Client the sink needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads the run's CSV file to <prefix><session>/<file>.
type S3Sink struct {
	client ObjectPutter
	bucket string
	prefix string
	log    *zap.Logger
}

// NewS3Client builds a client from the default AWS credential chain.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

func NewS3Sink(client ObjectPutter, bucket, prefix string, logger *zap.Logger) (*S3Sink, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 sink: empty bucket")
	}
	return &S3Sink{client: client, bucket: bucket, prefix: prefix, log: logger.Named("s3")}, nil
}

func (s *S3Sink) Name() string { return "s3" }

// Key returns the object key for an artifact.
func (s *S3Sink) Key(a models.Artifact) string {
	return s.prefix + path.Join(filepath.Base(a.SessionDir), filepath.Base(a.CSVPath))
}

// Store streams the CSV file to the bucket.
func (s *S3Sink) Store(ctx context.Context, a models.Artifact) error {
	f, err := os.Open(a.CSVPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", a.CSVPath, err)
	}
	defer f.Close()

	key := s.Key(a)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("text/csv"),
		Metadata:    map[string]string{"run-id": a.RunID},
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	s.log.Info("dataset uploaded", zap.String("bucket", s.bucket), zap.String("key", key))
	return nil
}
