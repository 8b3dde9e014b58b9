package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_RejectsInvalidLevel(t *testing.T) {
	_, err := New("verbose")
	assert.Error(t, err)
}

func TestNew_ParsesLevel(t *testing.T) {
	logger, err := New("warn")
	require.NoError(t, err)
	defer logger.Sync()

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestMuteUnmute(t *testing.T) {
	logger, observed := newObservedLogger(zapcore.InfoLevel)

	logger.Info("before mute")
	logger.Mute()
	assert.True(t, logger.Muted())
	logger.Info("while muted")
	logger.Unmute()
	assert.False(t, logger.Muted())
	logger.Info("after unmute")

	messages := observed.All()
	require.Len(t, messages, 2)
	assert.Equal(t, "before mute", messages[0].Message)
	assert.Equal(t, "after unmute", messages[1].Message)
}

func TestMute_Idempotent(t *testing.T) {
	logger, observed := newObservedLogger(zapcore.InfoLevel)

	logger.Mute()
	logger.Mute()
	logger.Unmute()
	assert.False(t, logger.Muted())

	logger.Info("restored")
	assert.Equal(t, 1, observed.Len())
}

func TestSetLevel_WhileMutedTakesEffectOnUnmute(t *testing.T) {
	logger, observed := newObservedLogger(zapcore.InfoLevel)

	logger.Mute()
	logger.SetLevel(zapcore.ErrorLevel)
	logger.Unmute()

	logger.Info("filtered out")
	logger.Error("kept")

	messages := observed.All()
	require.Len(t, messages, 1)
	assert.Equal(t, "kept", messages[0].Message)
}

// newObservedLogger builds a Logger whose output is captured in memory and
// gated by the same atomic level the mute switch manipulates.
func newObservedLogger(initial zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, observed := observer.New(zapcore.DebugLevel)
	level := zap.NewAtomicLevelAt(initial)
	logger := &Logger{
		Logger:  zap.New(&leveledCore{Core: core, level: level}),
		level:   level,
		restore: initial,
	}
	return logger, observed
}

// leveledCore gates a core behind an atomic level so tests exercise the same
// level mechanism as the real logger.
type leveledCore struct {
	zapcore.Core
	level zap.AtomicLevel
}

func (c *leveledCore) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l)
}

func (c *leveledCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c *leveledCore) With(fields []zapcore.Field) zapcore.Core {
	return &leveledCore{Core: c.Core.With(fields), level: c.level}
}
