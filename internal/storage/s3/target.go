// Package s3 implements the upload target for AWS S3 and S3-compatible
// object stores.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cargoconfig "github.com/scttfrdmn/cargoship/pkg/aws/config"
	cargoships3 "github.com/scttfrdmn/cargoship/pkg/aws/s3"
	"go.uber.org/zap"

	"github.com/collectorkit/collectorkit/pkg/errors"
	"github.com/collectorkit/collectorkit/pkg/types"
)

// Target uploads payloads to one S3 bucket.
type Target struct {
	name        string
	bucket      string
	client      *s3.Client
	transporter *cargoships3.Transporter
	config      *Config
	timestamp   types.TimestampFormat
	logger      *zap.Logger
	now         func() time.Time

	mu     sync.Mutex
	closed bool
}

// NewTarget creates an S3 upload target.
func NewTarget(ctx context.Context, name string, cfg *Config, logger *zap.Logger) (*Target, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid S3 target config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	var transporter *cargoships3.Transporter
	if cfg.EnableAcceleratedTransport {
		transporter = cargoships3.NewTransporter(client, cargoconfig.S3Config{
			Bucket:             cfg.Bucket,
			StorageClass:       cargoconfig.StorageClassIntelligentTiering,
			MultipartThreshold: cfg.MultipartThreshold,
			MultipartChunkSize: cfg.MultipartChunkSize,
			Concurrency:        cfg.Concurrency,
		})
		logger.Info("accelerated S3 transport enabled",
			zap.String("target", name),
			zap.String("bucket", cfg.Bucket),
			zap.Int64("multipart_threshold", cfg.MultipartThreshold))
	}

	ts := cfg.Timestamp
	if ts == nil {
		ts = types.DefaultTimestamp
	}

	return &Target{
		name:        name,
		bucket:      cfg.Bucket,
		client:      client,
		transporter: transporter,
		config:      cfg,
		timestamp:   ts,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Name identifies the target in logs and metrics.
func (t *Target) Name() string {
	return t.name
}

// UploadFile delivers the payload to the object key built from the
// descriptor. Provider failures surface as UPLOAD_FAILED errors.
func (t *Target) UploadFile(ctx context.Context, payload []byte, desc types.UploadDescriptor) error {
	if t.isClosed() {
		return errors.NewUpload(t.name, fmt.Errorf("target is disconnected"))
	}

	key := desc.ObjectKey(t.now(), t.timestamp)

	ctx, cancel := context.WithTimeout(ctx, t.config.RequestTimeout)
	defer cancel()

	if t.transporter != nil && int64(len(payload)) >= t.config.MultipartThreshold {
		archive := cargoships3.Archive{
			Key:          key,
			Reader:       bytes.NewReader(payload),
			Size:         int64(len(payload)),
			StorageClass: cargoconfig.StorageClassIntelligentTiering,
			Metadata: map[string]string{
				"collector-upload": "true",
				"content-type":     "application/json",
			},
		}
		result, uploadErr := t.transporter.Upload(ctx, archive)
		if uploadErr == nil {
			t.logger.Debug("accelerated upload completed",
				zap.String("target", t.name),
				zap.String("key", key),
				zap.Float64("throughput", result.Throughput),
				zap.Duration("duration", result.Duration))
			return nil
		}
		t.logger.Warn("accelerated upload failed, falling back to standard client",
			zap.String("target", t.name),
			zap.String("key", key),
			zap.Error(uploadErr))
	}

	_, err := t.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(t.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(payload),
		ContentLength: aws.Int64(int64(len(payload))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return errors.NewUpload(t.name, err)
	}

	t.logger.Debug("object uploaded",
		zap.String("target", t.name),
		zap.String("key", key),
		zap.Int("bytes", len(payload)))
	return nil
}

// Disconnect marks the target closed. Safe to call repeatedly; uploads after
// disconnection fail without a network call.
func (t *Target) Disconnect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return nil
}

func (t *Target) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
