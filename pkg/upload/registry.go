package upload

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/collectorkit/collectorkit/internal/metrics"
	"github.com/collectorkit/collectorkit/internal/storage/s3"
	"github.com/collectorkit/collectorkit/pkg/types"
)

// Provider identifies a cloud storage provider kind.
type Provider string

const (
	// ProviderS3 covers AWS S3 and any S3-compatible store reachable through
	// an endpoint override.
	ProviderS3 Provider = "s3"
)

// TargetConfig describes one configured upload destination.
type TargetConfig struct {
	Provider Provider `yaml:"provider"`

	// Name identifies the target in logs and metrics. Defaults to
	// "{provider}-{bucket}".
	Name string `yaml:"name"`

	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style"`

	// Accelerated enables the optimized transport path for large payloads.
	Accelerated bool `yaml:"accelerated"`

	// Timestamp selects the filename timestamp convention for keys built
	// from descriptors without an explicit filename.
	Timestamp types.TimestampFormat `yaml:"-"`
}

// Builder constructs a Target from its configuration.
type Builder func(ctx context.Context, cfg TargetConfig, logger *zap.Logger) (Target, error)

var (
	buildersMu sync.RWMutex
	builders   = map[Provider]Builder{
		ProviderS3: newS3Target,
	}
)

// RegisterProvider installs a builder for a provider kind, replacing any
// existing one. Services with bespoke destinations use this to extend the
// dispatch table.
func RegisterProvider(p Provider, b Builder) {
	buildersMu.Lock()
	defer buildersMu.Unlock()
	builders[p] = b
}

// NewTarget constructs a single target through the provider dispatch table.
func NewTarget(ctx context.Context, cfg TargetConfig, logger *zap.Logger) (Target, error) {
	buildersMu.RLock()
	builder, ok := builders[cfg.Provider]
	buildersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown upload provider: %q", cfg.Provider)
	}
	return builder(ctx, cfg, logger)
}

// NewCollectionFromConfigs builds every configured target and returns a
// Collection managing them. Construction is all-or-nothing: a single bad
// target configuration fails the whole call, since starting a collector with
// a silently missing destination is worse than not starting it.
func NewCollectionFromConfigs(ctx context.Context, cfgs []TargetConfig, logger *zap.Logger, reg *metrics.Registry) (*Collection, error) {
	targets := make([]Target, 0, len(cfgs))
	for _, cfg := range cfgs {
		target, err := NewTarget(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s target: %w", cfg.Provider, err)
		}
		targets = append(targets, target)
	}
	return NewCollection(logger, reg, targets...), nil
}

func newS3Target(ctx context.Context, cfg TargetConfig, logger *zap.Logger) (Target, error) {
	name := cfg.Name
	if name == "" {
		name = fmt.Sprintf("%s-%s", cfg.Provider, cfg.Bucket)
	}
	s3cfg := s3.NewDefaultConfig()
	s3cfg.Bucket = cfg.Bucket
	s3cfg.Region = cfg.Region
	s3cfg.Endpoint = cfg.Endpoint
	s3cfg.AccessKeyID = cfg.AccessKeyID
	s3cfg.SecretAccessKey = cfg.SecretAccessKey
	s3cfg.ForcePathStyle = cfg.ForcePathStyle
	s3cfg.EnableAcceleratedTransport = cfg.Accelerated
	s3cfg.Timestamp = cfg.Timestamp

	return s3.NewTarget(ctx, name, s3cfg, logger)
}
