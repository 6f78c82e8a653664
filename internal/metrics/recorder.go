// Package metrics exposes Prometheus metrics about the websocket session,
// the market data it receives and the Kafka fan-out.
package metrics

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/alejoacosta74/bitfinex-ws/internal/common"
	"github.com/alejoacosta74/bitfinex-ws/internal/dispatcher"
	"github.com/alejoacosta74/bitfinex-ws/internal/events"
	"github.com/alejoacosta74/bitfinex-ws/internal/logger"
	"github.com/alejoacosta74/bitfinex-ws/internal/ws"
	"github.com/alejoacosta74/bitfinex-ws/pkg/bitfinex"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const namespace = "bitfinex"

// Recorder records metrics from the events published on the bus. It also
// implements kafka.Recorder.
type Recorder struct {
	wsMetrics struct {
		notifications *prometheus.CounterVec // by event
		dataEvents    *prometheus.CounterVec // by channel and type
		errors        *prometheus.CounterVec // by kind
		subscriptions prometheus.Gauge
	}
	marketMetrics struct {
		spread    *prometheus.GaugeVec // ask - bid by symbol
		lastPrice *prometheus.GaugeVec
	}
	kafkaMetrics struct {
		messagesSent  *prometheus.CounterVec
		sendErrors    *prometheus.CounterVec
		sendLatency   prometheus.Histogram
		poolAvailable prometheus.Gauge
	}

	gatherer    prometheus.Gatherer
	bus         events.Bus
	logInterval time.Duration
	logger      *logrus.Entry

	mu      sync.RWMutex
	symbols map[int64]string // chan_id -> symbol, from subscription acks

	wg   sync.WaitGroup
	done chan struct{}
}

// NewRecorder registers the metrics on reg. The registry is also used to log
// a periodic summary.
func NewRecorder(reg *prometheus.Registry, bus events.Bus) *Recorder {
	r := &Recorder{
		gatherer:    reg,
		bus:         bus,
		logInterval: time.Minute,
		logger:      logger.WithField("component", "metrics_recorder"),
		symbols:     make(map[int64]string),
		done:        make(chan struct{}),
	}

	factory := promauto.With(reg)

	r.wsMetrics.notifications = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "notifications_total",
		Help:      "Number of notification messages received by event",
	}, []string{"event"})

	r.wsMetrics.dataEvents = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "data_events_total",
		Help:      "Number of data events received by channel and type",
	}, []string{"channel", "type"})

	r.wsMetrics.errors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "errors_total",
		Help:      "Number of session errors by kind",
	}, []string{"kind"})

	r.wsMetrics.subscriptions = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "subscriptions",
		Help:      "Number of acknowledged subscriptions on the current connection",
	})

	r.marketMetrics.spread = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ticker",
		Name:      "spread",
		Help:      "Current spread between best ask and best bid",
	}, []string{"symbol"})

	r.marketMetrics.lastPrice = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ticker",
		Name:      "last_price",
		Help:      "Last traded price reported by the ticker",
	}, []string{"symbol"})

	r.kafkaMetrics.messagesSent = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "kafka",
		Name:      "messages_sent_total",
		Help:      "Number of messages acknowledged by Kafka by topic",
	}, []string{"topic"})

	r.kafkaMetrics.sendErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "kafka",
		Name:      "errors_total",
		Help:      "Number of Kafka send failures by reason",
	}, []string{"reason"})

	r.kafkaMetrics.sendLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "kafka",
		Name:      "send_latency_seconds",
		Help:      "Latency of Kafka sends in seconds",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	r.kafkaMetrics.poolAvailable = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "kafka",
		Name:      "pool_available_producers",
		Help:      "Number of idle producers in the pool",
	})

	r.logger.Debug("Metrics recorder initialized")
	return r
}

// Start subscribes to every bus topic. It returns immediately; Done is
// closed once ctx is cancelled and every subscription was released.
func (r *Recorder) Start(ctx context.Context) error {
	topics := append([]common.Topic{
		common.TopicInfo,
		common.TopicAuth,
		common.TopicSubscribed,
		common.TopicError,
	}, common.DataTopics()...)

	for _, topic := range topics {
		ch := r.bus.Subscribe(topic)
		r.wg.Add(1)
		go r.consume(ctx, topic, ch)
	}

	r.wg.Add(1)
	go r.logPeriodically(ctx)

	go func() {
		r.wg.Wait()
		close(r.done)
	}()

	r.logger.WithField("topics", len(topics)).Debug("Metrics recorder started")
	return nil
}

func (r *Recorder) Done() <-chan struct{} {
	return r.done
}

func (r *Recorder) consume(ctx context.Context, topic common.Topic, ch <-chan interface{}) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			r.bus.Unsubscribe(topic, ch)
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			r.record(ev)
		}
	}
}

func (r *Recorder) record(ev interface{}) {
	switch e := ev.(type) {
	case *bitfinex.InfoEvent:
		r.wsMetrics.notifications.WithLabelValues(bitfinex.EventInfo).Inc()
		r.mu.Lock()
		r.symbols = make(map[int64]string)
		r.mu.Unlock()
		r.wsMetrics.subscriptions.Set(0)
	case *bitfinex.AuthEvent:
		r.wsMetrics.notifications.WithLabelValues(bitfinex.EventAuth).Inc()
	case *bitfinex.SubscribedEvent:
		r.wsMetrics.notifications.WithLabelValues(bitfinex.EventSubscribed).Inc()
		sub := e.Subscription()
		r.mu.Lock()
		r.symbols[sub.ChanID] = sub.Symbol
		n := len(r.symbols)
		r.mu.Unlock()
		r.wsMetrics.subscriptions.Set(float64(n))
	case bitfinex.DataEvent:
		r.recordData(e)
	case error:
		r.wsMetrics.errors.WithLabelValues(errorKind(e)).Inc()
	default:
		r.logger.Tracef("Ignoring event of type %T", ev)
	}
}

func (r *Recorder) recordData(ev bitfinex.DataEvent) {
	r.wsMetrics.dataEvents.WithLabelValues(string(ev.Channel()), reflect.TypeOf(ev).Name()).Inc()

	switch t := ev.(type) {
	case bitfinex.TickerEvent:
		symbol := r.symbol(t.ChanID)
		r.marketMetrics.spread.WithLabelValues(symbol).Set(spread(t.Ticker.Bid, t.Ticker.Ask))
		r.marketMetrics.lastPrice.WithLabelValues(symbol).Set(t.Ticker.LastPrice)
	case bitfinex.FundingTickerEvent:
		symbol := r.symbol(t.ChanID)
		r.marketMetrics.spread.WithLabelValues(symbol).Set(spread(t.Ticker.Bid, t.Ticker.Ask))
		r.marketMetrics.lastPrice.WithLabelValues(symbol).Set(t.Ticker.LastPrice)
	}
}

// spread returns ask - bid rounded through decimal arithmetic.
func spread(bid, ask float64) float64 {
	s, _ := decimal.NewFromFloat(ask).Sub(decimal.NewFromFloat(bid)).Float64()
	return s
}

// symbol falls back to the chan_id when the acknowledgment was not seen.
func (r *Recorder) symbol(chanID int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.symbols[chanID]; ok && s != "" {
		return s
	}
	return strconv.FormatInt(chanID, 10)
}

func errorKind(err error) string {
	var (
		transportErr *ws.TransportError
		closeErr     *ws.CloseError
		decodeErr    *dispatcher.DecodeError
		authErr      *bitfinex.AuthError
	)
	switch {
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &closeErr):
		return "close"
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.As(err, &authErr):
		return "auth"
	default:
		return "other"
	}
}

func (r *Recorder) RecordKafkaMessageSent(topic string, latency time.Duration) {
	r.kafkaMetrics.messagesSent.WithLabelValues(topic).Inc()
	r.kafkaMetrics.sendLatency.Observe(latency.Seconds())
}

func (r *Recorder) RecordKafkaError(reason string) {
	r.kafkaMetrics.sendErrors.WithLabelValues(reason).Inc()
}

func (r *Recorder) UpdateKafkaPoolAvailable(n int) {
	r.kafkaMetrics.poolAvailable.Set(float64(n))
}

func (r *Recorder) logPeriodically(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.logInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.logSummary()
		}
	}
}

// logSummary logs the totals of the counters registered by the recorder.
func (r *Recorder) logSummary() {
	families, err := r.gatherer.Gather()
	if err != nil {
		r.logger.WithError(err).Warn("Failed to gather metrics")
		return
	}

	fields := logger.Fields{}
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		fields[mf.GetName()] = sumCounters(mf)
	}
	r.logger.WithFields(fields).Info("Current metric totals")
}

func sumCounters(mf *dto.MetricFamily) float64 {
	var total float64
	for _, m := range mf.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	return total
}
