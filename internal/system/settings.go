package system

import (
	"runtime"
	"runtime/debug"

	"github.com/alejoacosta74/bitfinex-ws/internal/config"
	"github.com/alejoacosta74/bitfinex-ws/internal/logger"
	"github.com/sirupsen/logrus"
)

// Settings holds the runtime settings applied at startup. Zero values keep
// the Go runtime defaults.
type Settings struct {
	MaxProcs    int
	GCPercent   int
	MaxThreads  int
	MemoryLimit int // in MB
	logger      *logrus.Entry
}

// DefaultSettings returns recommended default settings
func DefaultSettings() *Settings {
	return &Settings{
		MaxProcs:    runtime.NumCPU(),
		GCPercent:   100,
		MaxThreads:  10000,
		MemoryLimit: 1024 * 2, // 2GB memory limit
		logger:      logger.WithField("component", "system_settings"),
	}
}

// FromConfig overrides the defaults with the non zero values of cfg.
func FromConfig(cfg config.SystemConfig) *Settings {
	s := DefaultSettings()
	if cfg.MaxProcs > 0 {
		s.MaxProcs = cfg.MaxProcs
	}
	if cfg.GCPercent != 0 {
		s.GCPercent = cfg.GCPercent
	}
	if cfg.MaxThreads > 0 {
		s.MaxThreads = cfg.MaxThreads
	}
	if cfg.MemoryLimit > 0 {
		s.MemoryLimit = cfg.MemoryLimit
	}
	return s
}

// Apply configures system-wide settings
func (s *Settings) Apply() {
	runtime.GOMAXPROCS(s.MaxProcs)
	debug.SetGCPercent(s.GCPercent)
	debug.SetMaxThreads(s.MaxThreads)
	debug.SetMemoryLimit(int64(s.MemoryLimit) * 1024 * 1024)

	s.logger.WithFields(logger.Fields{
		"gomaxprocs":      s.MaxProcs,
		"gc_percent":      s.GCPercent,
		"max_threads":     s.MaxThreads,
		"memory_limit_mb": s.MemoryLimit,
	}).Info("System settings applied")
}
