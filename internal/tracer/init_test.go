package tracer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitTracerDisabledIsNoop(t *testing.T) {
	shutdown := InitTracer(context.Background(), Config{Enabled: false})
	assert.NoError(t, shutdown(context.Background()))
}
