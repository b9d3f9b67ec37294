package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentBlob, Output: &buf})

	logger.Info("Receipt stored", FieldReceipt, "receipts/a.png")
	assert.Contains(t, buf.String(), "component=blobstore")
	assert.Contains(t, buf.String(), "receipt=receipts/a.png")

	buf.Reset()
	logger.WithComponent(ComponentStorage).Debug("Query")
	assert.Contains(t, buf.String(), "component=storage")
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})

	logger.Info("hidden")
	assert.Empty(t, buf.String())
	logger.Warn("shown")
	assert.Contains(t, buf.String(), "component=app")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentBoundary, Output: &buf})

	ctx := NewContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithOperation(OpCreate).
		WithExpense(7, 3, "receipts/a.png").
		WithError(errors.New("boom")).
		WithError(nil)

	assert.Equal(t, OpCreate, f[FieldOperation])
	assert.Equal(t, int64(7), f[FieldExpenseID])
	assert.Equal(t, "boom", f[FieldError])
	assert.Len(t, f.ToSlice(), len(f)*2)
}
