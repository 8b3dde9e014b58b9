package s3

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collectorkit/collectorkit/pkg/types"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"bucket and region", func(c *Config) { c.Bucket = "b"; c.Region = "eu-west-1" }, false},
		{"bucket and endpoint only", func(c *Config) { c.Bucket = "b"; c.Endpoint = "http://minio:9000" }, false},
		{"missing bucket", func(c *Config) { c.Region = "eu-west-1" }, true},
		{"missing region and endpoint", func(c *Config) { c.Bucket = "b" }, true},
		{"access key without secret", func(c *Config) {
			c.Bucket = "b"
			c.Region = "eu-west-1"
			c.AccessKeyID = "AKIA"
		}, true},
		{"full static credentials", func(c *Config) {
			c.Bucket = "b"
			c.Region = "eu-west-1"
			c.AccessKeyID = "AKIA"
			c.SecretAccessKey = "secret"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewTarget_RejectsInvalidConfig(t *testing.T) {
	_, err := NewTarget(context.Background(), "bad", &Config{}, nil)
	assert.Error(t, err)
}

func TestTarget_DisconnectIsIdempotent(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Bucket = "exports"
	cfg.Region = "eu-west-1"
	cfg.AccessKeyID = "AKIA"
	cfg.SecretAccessKey = "secret"

	target, err := NewTarget(context.Background(), "s3-exports", cfg, nil)
	require.NoError(t, err)

	assert.NoError(t, target.Disconnect(context.Background()))
	assert.NoError(t, target.Disconnect(context.Background()))
}

func TestTarget_UploadAfterDisconnectFailsFast(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Bucket = "exports"
	cfg.Region = "eu-west-1"
	cfg.AccessKeyID = "AKIA"
	cfg.SecretAccessKey = "secret"

	target, err := NewTarget(context.Background(), "s3-exports", cfg, nil)
	require.NoError(t, err)
	require.NoError(t, target.Disconnect(context.Background()))

	err = target.UploadFile(context.Background(), []byte("{}"), types.UploadDescriptor{FilePath: "/x"})
	assert.Error(t, err)
}

func TestTarget_ObjectKeyUsesConfiguredTimestamp(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Bucket = "exports"
	cfg.Region = "eu-west-1"
	cfg.AccessKeyID = "AKIA"
	cfg.SecretAccessKey = "secret"
	cfg.Timestamp = types.LegacyTimestamp

	target, err := NewTarget(context.Background(), "s3-exports", cfg, nil)
	require.NoError(t, err)

	now := time.Date(2025, 3, 9, 14, 30, 5, 0, time.UTC)
	target.now = func() time.Time { return now }

	desc := types.UploadDescriptor{
		ServiceName:     "nodewatch",
		DataSourceName:  "nodes",
		ServiceLocation: types.LocationGlobal,
	}
	key := desc.ObjectKey(target.now(), target.timestamp)
	assert.Equal(t, "global/nodewatch/nodes/nodewatch-nodes-2025-03-09_09_14:30:05.json", key)
}
