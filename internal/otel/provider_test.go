package otel

import (
	"context"
	"testing"
	"time"

	"github.com/mrzor/process-inspector/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownProvider_Nil(t *testing.T) {
	assert.NoError(t, ShutdownProvider(context.Background(), nil))
}

func TestInitProvider(t *testing.T) {
	cfg := &config.OTELConfig{
		ServiceName:        "process-inspector",
		ExporterEndpoint:   "localhost:4318",
		ResourceAttributes: "deployment.environment=test",
	}

	tp, err := InitProvider(cfg, "v1.2.3")
	require.NoError(t, err)
	require.NotNil(t, tp)
	assert.NotNil(t, tp.Tracer("test"))

	// Nothing was recorded, so shutdown has nothing to flush.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, ShutdownProvider(ctx, tp))
}
