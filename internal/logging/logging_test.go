package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_NoLogger(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, zerolog.Disabled, l.GetLevel())
}

func TestFromContext_AddsTraceID(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	ctx := base.WithContext(context.Background())
	ctx = ContextWithTraceID(ctx, "01TESTTRACE")

	FromContext(ctx).Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "01TESTTRACE", line["trace_id"])
	assert.Equal(t, "hello", line["message"])
}

func TestGetOrGenerateTraceID(t *testing.T) {
	ctx := context.Background()
	generated := GetOrGenerateTraceID(ctx)
	assert.Len(t, generated, 26)

	ctx = ContextWithTraceID(ctx, "fixed")
	assert.Equal(t, "fixed", GetOrGenerateTraceID(ctx))
}

func TestNewLoggerWithPath(t *testing.T) {
	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "truequote.log")
		res := NewLoggerWithPath(Config{Level: "debug", Format: FormatJSON, File: path})
		defer func() { require.NoError(t, res.Close()) }()

		assert.True(t, res.UsingFile)
		assert.Equal(t, path, res.FilePath)
		assert.Equal(t, zerolog.DebugLevel, res.Logger.GetLevel())
	})

	t.Run("unwritable file falls back", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "dir", "truequote.log")
		res := NewLoggerWithPath(Config{Level: "warn", File: path})
		assert.False(t, res.UsingFile)
		assert.True(t, res.FallbackUsed)
		assert.NotEmpty(t, res.FallbackReason)
		assert.NoError(t, res.Close())
	})

	t.Run("bad level defaults to info", func(t *testing.T) {
		res := NewLoggerWithPath(Config{Level: "chatty"})
		assert.Equal(t, zerolog.InfoLevel, res.Logger.GetLevel())
	})
}
