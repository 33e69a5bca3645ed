package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_NoBackendReportsUnavailable(t *testing.T) {
	limiter := NewLimiter(nil)

	d, err := limiter.Allow(context.Background(), "api", "10.0.0.1", time.Minute, 10)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Zero(t, d)
}
