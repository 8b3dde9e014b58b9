package s3

import (
	"fmt"
	"time"

	"github.com/collectorkit/collectorkit/pkg/types"
)

// Config represents S3 upload target configuration.
type Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	ForcePathStyle  bool   `yaml:"force_path_style"`

	// RequestTimeout bounds each PutObject call.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Accelerated transport settings. When enabled, payloads at or above
	// MultipartThreshold go through the optimized transporter, falling back
	// to the plain client on error.
	EnableAcceleratedTransport bool  `yaml:"enable_accelerated_transport"`
	MultipartThreshold         int64 `yaml:"multipart_threshold"`
	MultipartChunkSize         int64 `yaml:"multipart_chunk_size"`
	Concurrency                int   `yaml:"concurrency"`

	// Timestamp renders the filename segment of generated object keys.
	// Defaults to types.DefaultTimestamp.
	Timestamp types.TimestampFormat `yaml:"-"`
}

// NewDefaultConfig returns a configuration with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		RequestTimeout:     30 * time.Second,
		MultipartThreshold: 32 * 1024 * 1024,
		MultipartChunkSize: 16 * 1024 * 1024,
		Concurrency:        8,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	if c.Region == "" && c.Endpoint == "" {
		return fmt.Errorf("region is required when no endpoint override is given")
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return fmt.Errorf("access_key_id and secret_access_key must be set together")
	}
	return nil
}
