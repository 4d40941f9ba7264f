package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit_Environments(t *testing.T) {
	require.NoError(t, Init("production"))
	assert.NotNil(t, Get())

	require.NoError(t, Init("development"))
	assert.NotNil(t, Get())
}

func TestWithContext_AddsFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := SetForTest(zap.New(core))
	defer restore()

	ctx := ContextWithFields(context.Background(), zap.String("correlation_id", "req-1"))
	ctx = ContextWithFields(ctx, zap.String("analysis_id", "a-1"))

	WithContext(ctx).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["correlation_id"])
	assert.Equal(t, "a-1", fields["analysis_id"])
}

func TestWithContext_NoFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := SetForTest(zap.New(core))
	defer restore()

	WithContext(context.Background()).Info("plain")

	require.Equal(t, 1, logs.Len())
	assert.Empty(t, logs.All()[0].ContextMap())
}
