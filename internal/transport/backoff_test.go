package transport

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	base, max := 500*time.Millisecond, 5*time.Second

	tests := []struct {
		n    int
		want time.Duration
	}{
		{-1, 500 * time.Millisecond},
		{0, 500 * time.Millisecond},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second},
		{10, 5 * time.Second},
		{math.MaxInt32, 5 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(tt.n, base, max), "attempt %d", tt.n)
	}
}

func TestBackoffSaturatesWithHugeMax(t *testing.T) {
	d := Backoff(200, time.Second, time.Duration(math.MaxInt64))
	assert.Greater(t, d, time.Duration(0))
}

func TestBackoffZeroBase(t *testing.T) {
	assert.Equal(t, time.Duration(0), Backoff(3, 0, time.Second))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "disconnected", StatusDisconnected.String())
	assert.Equal(t, "connecting", StatusConnecting.String())
	assert.Equal(t, "connected", StatusConnected.String())
	assert.Equal(t, "reconnecting", StatusReconnecting.String())
	assert.Equal(t, "unknown", Status(42).String())
}
