package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return New(Config{Handler: slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	newBufferLogger(&buf).WithComponent(ComponentBudget).Info("hello", FieldUserID, "u1")

	out := buf.String()
	assert.Contains(t, out, "component=budget")
	assert.Contains(t, out, "user_id=u1")
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf).With(FieldRequestID, "r-1")
	ctx := NewContext(context.Background(), logger)

	FromContext(ctx).InfoContext(ctx, "traced")
	assert.Contains(t, buf.String(), "request_id=r-1")

	assert.NotNil(t, FromContext(context.Background()))
}

func TestStructuredLoggerError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf))
	sl.LogError(context.Background(), "Storage operation failed", errors.New("disk full"), ComponentBudget, "save month",
		NewFields().WithErrorType(ErrorTypeDatabase))

	out := buf.String()
	assert.Contains(t, out, "disk full")
	assert.Contains(t, out, "error_type=database_error")
	assert.Contains(t, out, `operation="save month"`)
}

func TestStructuredLoggerMonthChanged(t *testing.T) {
	var buf bytes.Buffer
	NewStructuredLogger(newBufferLogger(&buf)).LogMonthChanged(context.Background(), "u1", "m1", OpUpdate)

	out := buf.String()
	assert.Contains(t, out, "month_id=m1")
	assert.Contains(t, out, "operation=update")
}
