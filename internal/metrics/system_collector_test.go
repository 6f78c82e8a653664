package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewSystemCollector(reg)
	require.NoError(t, err)

	_, err = NewSystemCollector(reg)
	assert.Error(t, err, "registered twice")

	// 7 memory gauges, 2 gc gauges, goroutines and threads
	assert.Equal(t, 11, testutil.CollectAndCount(c))
	assert.Greater(t, testutil.ToFloat64(c.goroutines), 0.0)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}
