package trace

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpansStayOffStdoutByDefault(t *testing.T) {
	t.Setenv("TRACE_OUTPUT", "")
	assert.Same(t, os.Stderr, output())

	t.Setenv("TRACE_OUTPUT", "stdout")
	assert.Same(t, os.Stdout, output())
}

func TestShutdownDisablesTracing(t *testing.T) {
	t.Setenv("LOG_TRACING_ENABLED", "true")
	require.NoError(t, Init())
	require.True(t, Enabled())

	ctx, span := StartSpan(context.Background(), "test")
	_, _, ok := GetTraceFields(ctx)
	assert.True(t, ok)
	span.End()

	require.NoError(t, Shutdown(context.Background()))
	assert.False(t, Enabled())
	assert.NoError(t, Shutdown(context.Background()))
}

func TestDisabledByEnv(t *testing.T) {
	t.Setenv("LOG_TRACING_ENABLED", "false")
	require.NoError(t, Init())
	assert.False(t, Enabled())

	ctx, _ := StartSpan(context.Background(), "noop")
	_, _, ok := GetTraceFields(ctx)
	assert.False(t, ok)
}
