// Package storage archives raw webhook payloads to S3-compatible object
// storage (AWS S3, MinIO, RustFS).
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	webhookapp "github.com/Rafcin/openship/internal/application/webhook"
	"github.com/Rafcin/openship/internal/infrastructure/config"
)

// KeyPrefix is the root of every archived object
const KeyPrefix = "webhooks"

var _ webhookapp.PayloadArchive = (*S3Archive)(nil)

// S3Archive writes webhook payloads as JSON documents keyed by platform and
// receive date
type S3Archive struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// S3ArchiveOption is a functional option for configuring S3Archive
type S3ArchiveOption func(*S3Archive)

// WithLogger sets a custom logger for S3Archive
func WithLogger(logger *zap.Logger) S3ArchiveOption {
	return func(s *S3Archive) {
		s.logger = logger
	}
}

// NewS3Archive creates an archive from configuration. Static credentials are
// used when an access key is configured, otherwise the default AWS chain.
func NewS3Archive(ctx context.Context, cfg config.StorageConfig, opts ...S3ArchiveOption) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, errors.New("storage access key id and secret access key must be set together")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	archive := &S3Archive{
		client: client,
		bucket: cfg.Bucket,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(archive)
	}
	return archive, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *S3Archive) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating webhook archive bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// archivedDocument is the stored JSON shape
type archivedDocument struct {
	Platform   string            `json:"platform"`
	Topic      string            `json:"topic"`
	DeliveryID string            `json:"delivery_id"`
	ReceivedAt time.Time         `json:"received_at"`
	Headers    map[string]string `json:"headers,omitempty"`
	Payload    json.RawMessage   `json:"payload"`
}

// Archive implements webhook.PayloadArchive
func (s *S3Archive) Archive(ctx context.Context, payload webhookapp.ArchivedPayload) error {
	if payload.DeliveryID == "" {
		return errors.New("delivery id is required")
	}

	doc := archivedDocument{
		Platform:   payload.Platform,
		Topic:      payload.Topic,
		DeliveryID: payload.DeliveryID,
		ReceivedAt: payload.ReceivedAt.UTC(),
		Headers:    payload.Headers,
		Payload:    payload.Body,
	}
	// Non-JSON bodies are stored as a JSON string
	if !json.Valid(payload.Body) {
		quoted, err := json.Marshal(string(payload.Body))
		if err != nil {
			return err
		}
		doc.Payload = quoted
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode archived payload: %w", err)
	}

	key := ArchiveKey(payload.Platform, payload.ReceivedAt, payload.DeliveryID)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload archived payload %s: %w", key, err)
	}

	s.logger.Debug("Archived webhook payload",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
	)
	return nil
}

// Bucket returns the bucket name
func (s *S3Archive) Bucket() string {
	return s.bucket
}

// ArchiveKey returns webhooks/<platform>/<yyyy>/<mm>/<dd>/<id>.json. The date
// is taken in UTC.
func ArchiveKey(platform string, receivedAt time.Time, id string) string {
	t := receivedAt.UTC()
	return fmt.Sprintf("%s/%s/%04d/%02d/%02d/%s.json",
		KeyPrefix, keySegment(platform), t.Year(), int(t.Month()), t.Day(), keySegment(id))
}

// keySegment lower-cases s and replaces anything outside [a-z0-9._-]
func keySegment(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
