package tracer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleRatio(t *testing.T) {
	tests := []struct {
		value string
		want  float64
	}{
		{value: "", want: 1},
		{value: "abc", want: 1},
		{value: "0.25", want: 0.25},
		{value: "-3", want: 0},
		{value: "7", want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("OTEL_SAMPLE_RATIO", tt.value)
			assert.Equal(t, tt.want, sampleRatio())
		})
	}
}

func TestInitTracerDisabled(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "false")
	shutdown := InitTracer()
	assert.NoError(t, shutdown(context.Background()))
}
