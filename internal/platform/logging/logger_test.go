package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewCLIFiltersBelowWarnUnlessVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewCLI(buf, false)
	logger.Info("hidden")
	logger.Warn("shown", zap.String("field", "email"))
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARNING shown")
	assert.Contains(t, out, `"field": "email"`)

	buf.Reset()
	verbose := NewCLI(buf, true)
	verbose.Debug("[http] -> GET https://example.test")
	assert.Contains(t, buf.String(), "DEBUG [http] -> GET https://example.test")
}

func TestNewWithNilWriterIsNop(t *testing.T) {
	logger := New(nil, zap.DebugLevel)
	assert.NotPanics(t, func() { logger.Error("ignored") })
}

func TestContextLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithLogger(context.Background(), NewCLI(buf, false))

	LogInfo(ctx, "skipped")
	LogWarn(ctx, "careful")
	LogError(ctx, "failed", errors.New("boom"))

	out := buf.String()
	assert.NotContains(t, out, "skipped")
	assert.Contains(t, out, "careful")
	assert.Contains(t, out, "ERROR failed")
	assert.Contains(t, out, "boom")
}

func TestFromContextFallsBackToNop(t *testing.T) {
	var missing context.Context
	assert.NotNil(t, FromContext(missing))
	assert.NotNil(t, FromContext(context.Background()))
}
