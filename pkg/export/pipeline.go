// Package export turns collected datasets into JSON documents and routes them
// to their destination: cloud upload targets in production, the local
// filesystem everywhere else. Entries without meaningful data are skipped.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/collectorkit/collectorkit/internal/metrics"
	"github.com/collectorkit/collectorkit/pkg/types"
	"github.com/collectorkit/collectorkit/pkg/upload"
)

// DefaultLocalDir is where non-production exports are written.
const DefaultLocalDir = "data"

// Pipeline exports datasets entry by entry. The zero value is not usable;
// construct with NewPipeline.
type Pipeline struct {
	logger    *zap.Logger
	metrics   *metrics.Registry
	localDir  string
	timestamp types.TimestampFormat
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLocalDir overrides the directory for non-production exports.
func WithLocalDir(dir string) Option {
	return func(p *Pipeline) {
		if dir != "" {
			p.localDir = dir
		}
	}
}

// WithTimestampFormat overrides the filename timestamp format.
func WithTimestampFormat(ts types.TimestampFormat) Option {
	return func(p *Pipeline) { p.timestamp = ts }
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline builds an export pipeline.
func NewPipeline(logger *zap.Logger, reg *metrics.Registry, opts ...Option) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		logger:    logger,
		metrics:   reg,
		localDir:  DefaultLocalDir,
		timestamp: types.DefaultTimestamp,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ExportAll exports every entry of the dataset concurrently. Entries without
// meaningful data are skipped with a warning. A failed entry is logged and
// counted but never aborts its siblings; the returned error reflects only a
// cancelled context.
func (p *Pipeline) ExportAll(ctx context.Context, targets *upload.Collection, dataset types.Dataset, env types.Environment, desc types.UploadDescriptor) error {
	g, ctx := errgroup.WithContext(ctx)

	for name, value := range dataset {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.exportEntry(ctx, targets, name, value, env, desc)
			return nil
		})
	}

	return g.Wait()
}

func (p *Pipeline) exportEntry(ctx context.Context, targets *upload.Collection, name string, value any, env types.Environment, desc types.UploadDescriptor) {
	if !HasMeaningfulData(value) {
		p.logger.Warn("skipping export of empty dataset entry",
			zap.String("data_source", name))
		p.metrics.RecordExport(metrics.ExportOutcomeSkipped)
		return
	}

	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		p.logger.Error("failed to encode dataset entry",
			zap.String("data_source", name),
			zap.Error(err))
		p.metrics.RecordExport(metrics.ExportOutcomeFailed)
		return
	}

	if env.IsProduction() {
		err = p.exportRemote(ctx, targets, name, payload, desc)
	} else {
		err = p.exportLocal(name, payload, desc)
	}
	if err != nil {
		p.logger.Error("failed to export dataset entry",
			zap.String("data_source", name),
			zap.String("environment", string(env)),
			zap.Error(err))
		p.metrics.RecordExport(metrics.ExportOutcomeFailed)
		return
	}

	p.metrics.RecordExport(metrics.ExportOutcomeExported)
}

func (p *Pipeline) exportRemote(ctx context.Context, targets *upload.Collection, name string, payload []byte, desc types.UploadDescriptor) error {
	if targets == nil || targets.Len() == 0 {
		return fmt.Errorf("no upload targets configured")
	}

	entryDesc := desc.WithDataSource(name)
	if entryDesc.Filename == "" && entryDesc.FilePath == "" {
		entryDesc.Filename = types.ExportFilename(entryDesc.ServiceName, name, p.now(), p.timestamp)
	}
	return targets.Upload(ctx, payload, entryDesc)
}

func (p *Pipeline) exportLocal(name string, payload []byte, desc types.UploadDescriptor) error {
	if err := os.MkdirAll(p.localDir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory %s: %w", p.localDir, err)
	}

	filename := desc.Filename
	if filename == "" {
		filename = types.ExportFilename(desc.ServiceName, name, p.now(), p.timestamp)
	}
	path := filepath.Join(p.localDir, filename)

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write export file %s: %w", path, err)
	}

	p.logger.Info("exported dataset entry to local file",
		zap.String("data_source", name),
		zap.String("path", path))
	return nil
}
