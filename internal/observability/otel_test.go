package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"})
	require.Error(t, err)
}

func TestInitTracingStdout(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "stdout", ServiceName: "caelus-test"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
