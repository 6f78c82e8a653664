package metrics

import (
	"context"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/alejoacosta74/bitfinex-ws/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// SystemCollector implements the prometheus.Collector interface to expose Go runtime metrics.
// Values are read on every scrape; Start additionally logs them periodically.
type SystemCollector struct {
	memStats   *prometheus.GaugeVec // Vector of gauges for various memory statistics
	gcStats    *prometheus.GaugeVec // Vector of gauges for garbage collection metrics
	goroutines prometheus.Gauge
	threads    prometheus.Gauge
	done       chan struct{}
	logger     *logrus.Entry
}

// NewSystemCollector creates the collector and registers it on reg.
func NewSystemCollector(reg prometheus.Registerer) (*SystemCollector, error) {
	collector := &SystemCollector{
		memStats: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "system",
				Name:      "memory_bytes",
				Help:      "Memory statistics in bytes.",
			},
			[]string{"type"},
		),
		gcStats: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "system",
				Name:      "gc_stats",
				Help:      "Garbage collector statistics.",
			},
			[]string{"type"},
		),
		goroutines: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "system",
				Name:      "goroutines",
				Help:      "Number of running goroutines.",
			},
		),
		threads: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "system",
				Name:      "threads",
				Help:      "Number of OS threads created.",
			},
		),
		done:   make(chan struct{}),
		logger: logger.WithField("component", "system_collector"),
	}

	if err := reg.Register(collector); err != nil {
		return nil, err
	}
	return collector, nil
}

// Describe implements prometheus.Collector interface.
func (c *SystemCollector) Describe(ch chan<- *prometheus.Desc) {
	c.memStats.Describe(ch)
	c.gcStats.Describe(ch)
	ch <- c.goroutines.Desc()
	ch <- c.threads.Desc()
}

// Collect implements prometheus.Collector interface.
func (c *SystemCollector) Collect(ch chan<- prometheus.Metric) {
	var stats systemStats
	stats.update()
	c.set(stats)

	c.memStats.Collect(ch)
	c.gcStats.Collect(ch)
	c.goroutines.Collect(ch)
	c.threads.Collect(ch)
}

type systemStats struct {
	m              runtime.MemStats
	goroutineCount int
	threadCount    int
}

func (s *systemStats) update() {
	runtime.ReadMemStats(&s.m)
	s.goroutineCount = runtime.NumGoroutine()
	s.threadCount = pprof.Lookup("threadcreate").Count()
}

func (c *SystemCollector) set(s systemStats) {
	c.memStats.WithLabelValues("alloc").Set(float64(s.m.Alloc))            // Currently allocated heap memory
	c.memStats.WithLabelValues("total_alloc").Set(float64(s.m.TotalAlloc)) // Total bytes allocated (including freed)
	c.memStats.WithLabelValues("sys").Set(float64(s.m.Sys))
	c.memStats.WithLabelValues("heap_alloc").Set(float64(s.m.HeapAlloc))
	c.memStats.WithLabelValues("heap_sys").Set(float64(s.m.HeapSys))
	c.memStats.WithLabelValues("heap_idle").Set(float64(s.m.HeapIdle))
	c.memStats.WithLabelValues("heap_inuse").Set(float64(s.m.HeapInuse))

	c.gcStats.WithLabelValues("num_gc").Set(float64(s.m.NumGC))
	c.gcStats.WithLabelValues("pause_total_ns").Set(float64(s.m.PauseTotalNs))

	c.goroutines.Set(float64(s.goroutineCount))
	c.threads.Set(float64(s.threadCount))
}

// Start logs the runtime statistics every interval until ctx is cancelled.
// A non positive interval disables the log.
func (c *SystemCollector) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		close(c.done)
		return
	}
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				var stats systemStats
				stats.update()
				c.logStats(stats)
			}
		}
	}()
}

func (c *SystemCollector) Done() <-chan struct{} {
	return c.done
}

func (c *SystemCollector) logStats(s systemStats) {
	c.logger.WithFields(logger.Fields{
		"alloc_mb":       bToMb(s.m.Alloc),
		"total_alloc_mb": bToMb(s.m.TotalAlloc),
		"sys_mb":         bToMb(s.m.Sys),
		"heap_inuse_mb":  bToMb(s.m.HeapInuse),
		"num_gc":         s.m.NumGC,
		"gc_pause_ms":    s.m.PauseTotalNs / 1e6,
		"goroutines":     s.goroutineCount,
		"threads":        s.threadCount,
	}).Info("Application stats")
}

// bToMb converts bytes to megabytes
func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
