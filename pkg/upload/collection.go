package upload

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/collectorkit/collectorkit/internal/metrics"
	"github.com/collectorkit/collectorkit/pkg/types"
)

// Collection owns a set of upload targets for their entire lifetime and fans
// each payload out to all of them concurrently. One target's failure is
// logged and counted but never affects the others or the caller.
type Collection struct {
	logger  *zap.Logger
	metrics *metrics.Registry

	mu      sync.RWMutex
	targets []Target
}

// NewCollection creates a Collection managing the given targets.
func NewCollection(logger *zap.Logger, reg *metrics.Registry, targets ...Target) *Collection {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collection{
		logger:  logger,
		metrics: reg,
		targets: append([]Target(nil), targets...),
	}
}

// Add puts a target under the collection's management. Adds are expected to
// happen outside any in-flight Upload call.
func (c *Collection) Add(target Target) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targets = append(c.targets, target)
}

// Remove drops the named target from management without disconnecting it.
// It reports whether a target was removed.
func (c *Collection) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.targets {
		if t.Name() == name {
			c.targets = append(c.targets[:i], c.targets[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of managed targets.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.targets)
}

// Upload validates the descriptor once, then dispatches the payload to every
// managed target in parallel. It waits for all targets to settle and returns
// nil even when individual targets fail; only an invalid descriptor is an
// error, raised before any target is invoked.
func (c *Collection) Upload(ctx context.Context, payload []byte, desc types.UploadDescriptor) error {
	if err := desc.Validate(); err != nil {
		return err
	}

	c.mu.RLock()
	targets := append([]Target(nil), c.targets...)
	c.mu.RUnlock()

	var g errgroup.Group
	for _, target := range targets {
		g.Go(func() error {
			if err := target.UploadFile(ctx, payload, desc); err != nil {
				c.metrics.RecordUpload(target.Name(), false)
				c.logger.Error("upload to target failed",
					zap.String("target", target.Name()),
					zap.String("data_source", desc.DataSourceName),
					zap.Error(err))
				return nil
			}
			c.metrics.RecordUpload(target.Name(), true)
			c.logger.Debug("upload to target completed",
				zap.String("target", target.Name()),
				zap.String("data_source", desc.DataSourceName),
				zap.Int("bytes", len(payload)))
			return nil
		})
	}
	return g.Wait()
}

// DisconnectAll disconnects every managed target, continuing through the
// rest when one fails.
func (c *Collection) DisconnectAll(ctx context.Context) {
	c.mu.RLock()
	targets := append([]Target(nil), c.targets...)
	c.mu.RUnlock()

	for _, target := range targets {
		if err := target.Disconnect(ctx); err != nil {
			c.logger.Warn("failed to disconnect target",
				zap.String("target", target.Name()),
				zap.Error(err))
		}
	}
}
