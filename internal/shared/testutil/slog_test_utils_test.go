package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogCaptureKeepsBoundAttrs(t *testing.T) {
	logger, logs := NewTestLogger(t)

	logger.With(slog.String("component", "watcher")).
		WithGroup("run").
		Warn("inbox run failed", slog.String("error", "boom"))
	logger.Info("started")

	records := logs.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "watcher", records[0].Attrs["component"])
	assert.Equal(t, "boom", records[0].Attrs["run.error"])

	r := AssertLogged(t, logs, slog.LevelWarn, "run failed")
	assert.Equal(t, "inbox run failed", r.Message)

	_, ok := logs.Find(slog.LevelError, "started")
	assert.False(t, ok)
	AssertNoErrors(t, logs)
}
