package snsctx

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerbose(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsVerbose(ctx))
	assert.True(t, IsVerbose(SetVerbose(ctx, true)))
	assert.False(t, IsVerbose(SetVerbose(SetVerbose(ctx, true), false)))
}

func TestLogger(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, slog.Default(), Logger(ctx))

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx = WithLogger(ctx, logger)
	Logger(ctx).Info("hello", "sensor", 3)
	assert.Contains(t, buf.String(), "sensor=3")
}
