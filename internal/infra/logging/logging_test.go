//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-entitlement-bot/internal/config"
)

func TestWith_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := newWithWriter(config.LogConfig{Level: "debug", Format: "json"}, false, &buf)

	ctx := WithTraceID(context.Background(), "trace-1")
	ctx = WithTgID(ctx, 42)
	ctx = WithActor(ctx, 7)
	With(ctx, base).Info().Msg("hello")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "trace-1", line["trace_id"])
	assert.Equal(t, float64(42), line["tg_id"])
	assert.Equal(t, float64(7), line["actor"])
	assert.Equal(t, "trace-1", TraceID(ctx))
	assert.Equal(t, int64(7), Actor(ctx))
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(config.LogConfig{Level: "warn", Format: "json"}, false, &buf)

	l.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	l.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "ABCDEFGHIJ", Redact("ABCDEFGHIJ", true))
	assert.Equal(t, "***", Redact("short", false))
	assert.Equal(t, "ABCD...IJ", Redact("ABCDEFGHIJ", false))
}
