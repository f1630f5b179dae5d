package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRecordsSpans(t *testing.T) {
	ctx := context.Background()
	shutdown, err := Init(ctx, Config{Version: "test"})
	require.NoError(t, err)
	defer shutdown(ctx)

	_, span := Tracer("test").Start(ctx, "unit")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
	assert.True(t, span.IsRecording())
}
