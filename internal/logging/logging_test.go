package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

func TestWithRun_UsesTraceID(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := WithTraceID(WithLogger(context.Background(), base), "req-123")
	ctx, l := WithRun(ctx, "2024-01-15")
	l.Info("started")
	FromContext(ctx).Info("again")

	out := buf.String()
	assert.Contains(t, out, `"recon_date":"2024-01-15"`)
	assert.Contains(t, out, `"run_id":"req-123"`)
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("req-123")))
}

func TestWithRun_WithoutTraceGetsFreshID(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	_, l := WithRun(WithLogger(context.Background(), base), "2024-01-15")
	l.Info("started")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	runID, _ := rec["run_id"].(string)
	_, err := uuid.Parse(runID)
	assert.NoError(t, err, "run_id %q", runID)
}
