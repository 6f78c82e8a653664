package system

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/alejoacosta74/bitfinex-ws/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromConfig(t *testing.T) {
	s := FromConfig(config.SystemConfig{})
	assert.Equal(t, runtime.NumCPU(), s.MaxProcs)
	assert.Equal(t, 100, s.GCPercent)
	assert.Equal(t, 2048, s.MemoryLimit)

	s = FromConfig(config.SystemConfig{MaxProcs: 2, GCPercent: -1, MaxThreads: 500, MemoryLimit: 512})
	assert.Equal(t, 2, s.MaxProcs)
	assert.Equal(t, -1, s.GCPercent)
	assert.Equal(t, 500, s.MaxThreads)
	assert.Equal(t, 512, s.MemoryLimit)
}

func TestProfiling(t *testing.T) {
	dir := t.TempDir()

	stop, err := StartProfiling("")
	require.NoError(t, err)
	stop()
	require.NoError(t, WriteHeapProfile(""))

	cpu := filepath.Join(dir, "cpu.prof")
	stop, err = StartProfiling(cpu)
	require.NoError(t, err)
	stop()

	heap := filepath.Join(dir, "heap.prof")
	require.NoError(t, WriteHeapProfile(heap))

	for _, path := range []string{cpu, heap} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.NotZero(t, info.Size(), path)
	}

	_, err = StartProfiling(filepath.Join(dir, "missing", "cpu.prof"))
	assert.Error(t, err)
}
