package export

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/collectorkit/collectorkit/pkg/types"
	"github.com/collectorkit/collectorkit/pkg/upload"
)

type captureTarget struct {
	mu       sync.Mutex
	name     string
	payloads [][]byte
	keys     []string
	now      time.Time
}

func (c *captureTarget) Name() string { return c.name }

func (c *captureTarget) UploadFile(_ context.Context, payload []byte, desc types.UploadDescriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, payload)
	c.keys = append(c.keys, desc.ObjectKey(c.now, types.DefaultTimestamp))
	return nil
}

func (c *captureTarget) Disconnect(context.Context) error { return nil }

func fixedClock() func() time.Time {
	at := time.Date(2025, 3, 9, 14, 30, 5, 0, time.UTC)
	return func() time.Time { return at }
}

func TestPipelineExportAllProduction(t *testing.T) {
	target := &captureTarget{name: "s3-test", now: fixedClock()()}
	targets := upload.NewCollection(zap.NewNop(), nil, target)

	p := NewPipeline(zap.NewNop(), nil, WithClock(fixedClock()))
	dataset := types.Dataset{
		"nodes":   map[string]any{"cpu": 0.5},
		"storage": map[string]any{},
	}
	desc := types.UploadDescriptor{
		ServiceName:     "nodewatch",
		ServiceLocation: types.LocationGlobal,
	}

	err := p.ExportAll(context.Background(), targets, dataset, types.EnvProduction, desc)
	require.NoError(t, err)

	target.mu.Lock()
	defer target.mu.Unlock()
	require.Len(t, target.payloads, 1, "the empty storage entry must be skipped")
	assert.JSONEq(t, `{"cpu":0.5}`, string(target.payloads[0]))
	assert.Contains(t, string(target.payloads[0]), "\n", "payload should be pretty printed")
	assert.Equal(t, "global/nodewatch/nodes/nodewatch-nodes-2025-03-09_14:30:05.json", target.keys[0])
}

func TestPipelineExportAllLocal(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(zap.NewNop(), nil, WithLocalDir(dir), WithClock(fixedClock()))

	dataset := types.Dataset{"nodes": map[string]any{"cpu": 0.5}}
	desc := types.UploadDescriptor{ServiceName: "nodewatch"}

	err := p.ExportAll(context.Background(), nil, dataset, types.EnvDevelopment, desc)
	require.NoError(t, err)

	path := filepath.Join(dir, "nodewatch-nodes-2025-03-09_14:30:05.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cpu":0.5}`, string(data))
}

func TestPipelineExportAllSkipsEmptyDataset(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(zap.NewNop(), nil, WithLocalDir(dir), WithClock(fixedClock()))

	dataset := types.Dataset{
		"storage": map[string]any{},
		"blank":   "   ",
	}
	err := p.ExportAll(context.Background(), nil, dataset, types.EnvDevelopment, types.UploadDescriptor{ServiceName: "nodewatch"})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPipelineExportAllFailureIsolation(t *testing.T) {
	// No targets configured makes the remote path fail for every entry, but
	// ExportAll still returns nil and processes all entries.
	p := NewPipeline(zap.NewNop(), nil, WithClock(fixedClock()))

	dataset := types.Dataset{
		"nodes":   map[string]any{"cpu": 0.5},
		"volumes": map[string]any{"count": 3},
	}
	err := p.ExportAll(context.Background(), nil, dataset, types.EnvProduction, types.UploadDescriptor{ServiceName: "nodewatch"})
	assert.NoError(t, err)
}

func TestPipelineExportAllCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(zap.NewNop(), nil, WithClock(fixedClock()))
	dataset := types.Dataset{"nodes": map[string]any{"cpu": 0.5}}

	err := p.ExportAll(ctx, nil, dataset, types.EnvProduction, types.UploadDescriptor{ServiceName: "nodewatch"})
	assert.ErrorIs(t, err, context.Canceled)
}
