package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alejoacosta74/bitfinex-ws/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// MetricsServer handles exposing metrics via HTTP
type MetricsServer struct {
	server *http.Server
	logger *logrus.Entry
	done   chan struct{}
}

// NewMetricsServer serves the metrics of reg on /metrics. Scrapes are
// themselves instrumented on reg.
func NewMetricsServer(addr string, reg *prometheus.Registry) *MetricsServer {
	s := &MetricsServer{
		logger: logger.WithField("component", "metrics_server"),
		done:   make(chan struct{}),
	}

	metricsHandler := promhttp.InstrumentMetricHandler(reg,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			Registry:          reg,
		}),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debugf("Metrics request from %s", r.RemoteAddr)
		metricsHandler.ServeHTTP(w, r)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start serves until ctx is cancelled, then shuts the server down.
func (s *MetricsServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("Shutting down metrics server")
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.WithError(err).Error("Error shutting down server")
		}
		close(s.done)
	}()

	s.logger.WithField("addr", s.server.Addr).Info("Metrics server listening")
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		s.logger.WithError(err).Error("Error starting server")
		return err
	}
	s.logger.Info("Metrics server shutdown complete")
	return nil
}

func (s *MetricsServer) Done() <-chan struct{} {
	return s.done
}
