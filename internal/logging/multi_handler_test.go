package logging

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler captures handled records for assertions.
type recordingHandler struct {
	level   slog.Level
	err     error
	records []slog.Record
}

func (h *recordingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *recordingHandler) Handle(_ context.Context, record slog.Record) error {
	h.records = append(h.records, record)
	return h.err
}

func (h *recordingHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(_ string) slog.Handler      { return h }

func TestMultiHandlerFanOut(t *testing.T) {
	stdout := &recordingHandler{level: slog.LevelInfo}
	pg := &recordingHandler{level: slog.LevelError}
	multi := NewMultiHandler(stdout, pg)

	ctx := context.Background()
	assert.True(t, multi.Enabled(ctx, slog.LevelInfo))
	assert.False(t, multi.Enabled(ctx, slog.LevelDebug))

	info := slog.Record{Level: slog.LevelInfo, Message: "started"}
	require.NoError(t, multi.Handle(ctx, info))

	// Info reaches stdout only; the Postgres sink is ERROR+.
	assert.Len(t, stdout.records, 1)
	assert.Empty(t, pg.records)

	errRec := slog.Record{Level: slog.LevelError, Message: "boom"}
	require.NoError(t, multi.Handle(ctx, errRec))
	assert.Len(t, stdout.records, 2)
	assert.Len(t, pg.records, 1)
}

func TestMultiHandlerFailingSinkDoesNotBlockOthers(t *testing.T) {
	sinkErr := errors.New("insert failed")
	failing := &recordingHandler{level: slog.LevelInfo, err: sinkErr}
	healthy := &recordingHandler{level: slog.LevelInfo}
	multi := NewMultiHandler(failing, healthy)

	err := multi.Handle(context.Background(), slog.Record{Level: slog.LevelInfo, Message: "x"})
	assert.ErrorIs(t, err, sinkErr)
	assert.Len(t, healthy.records, 1)
}

func TestStdoutLevel(t *testing.T) {
	cases := []struct {
		env  string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range cases {
		t.Run("LOG_LEVEL="+tc.env, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tc.env)
			assert.Equal(t, tc.want, StdoutLevel())
		})
	}
}
