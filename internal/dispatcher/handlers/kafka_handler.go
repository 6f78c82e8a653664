package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alejoacosta74/bitfinex-ws/internal/circuitbreaker"
	"github.com/alejoacosta74/bitfinex-ws/internal/kafka"
	"github.com/alejoacosta74/bitfinex-ws/internal/logger"
	"github.com/alejoacosta74/bitfinex-ws/pkg/bitfinex"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const subscriptionsTopic = "subscriptions"

// KafkaConfig configures a KafkaHandler.
type KafkaConfig struct {
	TopicPrefix      string        // topics are <prefix>.<channel>
	SessionID        string        // generated when empty
	BufferSize       int           // queued messages before events are dropped
	Workers          int
	BreakerThreshold int
	BreakerTimeout   time.Duration
}

func (c *KafkaConfig) applyDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = "bitfinex"
	}
	if c.SessionID == "" {
		c.SessionID = uuid.NewString()
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 1024
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.BreakerThreshold <= 0 {
		c.BreakerThreshold = 5
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = 10 * time.Second
	}
}

// Envelope is the JSON document written to Kafka for every data event and
// subscription acknowledgment.
type Envelope struct {
	SessionID  string               `json:"session_id"`
	ChanID     int64                `json:"chan_id"`
	Channel    bitfinex.ChannelKind `json:"channel"`
	Type       string               `json:"type"`
	ReceivedAt int64                `json:"received_at"` // unix ms
	Event      interface{}          `json:"event"`
}

// KafkaHandler serialises data events and subscription acknowledgments and
// hands them to a pool of workers sending through a kafka.MessageSender.
// Callbacks never block the session: when the buffer is full the event is
// dropped and counted.
type KafkaHandler struct {
	BaseHandler
	sender  kafka.MessageSender
	config  KafkaConfig
	breaker *circuitbreaker.CircuitBreaker
	msgs    chan kafka.Message
	errs    chan error
	logger  *logrus.Entry
	now     func() time.Time

	mu      sync.RWMutex // protects started and msgs closing
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	errWg   sync.WaitGroup

	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewKafkaHandler creates a handler. Start must be called before events are
// forwarded; events received earlier are dropped.
func NewKafkaHandler(sender kafka.MessageSender, config KafkaConfig) *KafkaHandler {
	config.applyDefaults()
	return &KafkaHandler{
		sender:  sender,
		config:  config,
		breaker: circuitbreaker.NewCircuitBreaker(config.BreakerThreshold, config.BreakerTimeout),
		logger:  logger.WithField("component", "kafka_handler").WithField("session_id", config.SessionID),
		now:     time.Now,
	}
}

// SessionID identifies this process' session in every message.
func (h *KafkaHandler) SessionID() string {
	return h.config.SessionID
}

// Start launches the workers.
func (h *KafkaHandler) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return errors.New("kafka handler already started")
	}

	ctx, h.cancel = context.WithCancel(ctx)
	h.msgs = make(chan kafka.Message, h.config.BufferSize)
	h.errs = make(chan error, h.config.Workers)

	h.errWg.Add(1)
	go h.collectErrors(h.errs)

	for i := 0; i < h.config.Workers; i++ {
		w := kafka.NewWorker(i, h.sender, h.msgs, h.breaker, h.errs)
		h.wg.Add(1)
		go w.Start(ctx, &h.wg)
	}

	h.started = true
	h.logger.WithField("workers", h.config.Workers).Info("Kafka handler started")
	return nil
}

// Stop lets the workers flush the queued messages and waits for them, or
// gives up when ctx is done.
func (h *KafkaHandler) Stop(ctx context.Context) error {
	h.mu.Lock()
	if !h.started {
		h.mu.Unlock()
		return nil
	}
	h.started = false
	close(h.msgs)
	errs, cancel := h.errs, h.cancel
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(errs)
		h.errWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		cancel()
		h.logger.WithFields(logger.Fields{
			"dropped": h.Dropped(),
			"failed":  h.Failed(),
		}).Info("Kafka handler stopped")
		return nil
	case <-ctx.Done():
		cancel()
		return fmt.Errorf("kafka handler stop: %w", ctx.Err())
	}
}

func (h *KafkaHandler) collectErrors(errs <-chan error) {
	defer h.errWg.Done()
	for err := range errs {
		h.failed.Add(1)
		h.logger.WithError(err).Debug("Kafka send failed")
	}
}

func (h *KafkaHandler) OnSubscribed(ev *bitfinex.SubscribedEvent) {
	sub := ev.Subscription()
	h.enqueue(h.config.TopicPrefix+"."+subscriptionsTopic, Envelope{
		SessionID: h.config.SessionID,
		ChanID:    sub.ChanID,
		Channel:   sub.Kind,
		Type:      "Subscription",
		Event:     sub,
	})
}

func (h *KafkaHandler) OnDataEvent(ev bitfinex.DataEvent) {
	h.enqueue(h.Topic(ev.Channel()), Envelope{
		SessionID: h.config.SessionID,
		ChanID:    ev.ChannelID(),
		Channel:   ev.Channel(),
		Type:      eventTypeName(ev),
		Event:     ev,
	})
}

// Topic returns the Kafka topic receiving the events of a channel kind.
func (h *KafkaHandler) Topic(kind bitfinex.ChannelKind) string {
	return h.config.TopicPrefix + "." + string(kind)
}

func (h *KafkaHandler) enqueue(topic string, env Envelope) {
	env.ReceivedAt = h.now().UnixMilli()
	payload, err := json.Marshal(env)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode event")
		return
	}

	msg := kafka.Message{
		Topic:   topic,
		Key:     strconv.FormatInt(env.ChanID, 10),
		Payload: payload,
		Headers: map[string]string{
			"session_id": env.SessionID,
			"type":       env.Type,
		},
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.started {
		h.dropped.Add(1)
		return
	}

	select {
	case h.msgs <- msg:
	default:
		if h.dropped.Add(1)%100 == 1 {
			h.logger.WithField("topic", topic).Warn("Kafka buffer full, dropping events")
		}
	}
}

// Dropped reports the events discarded because the handler was not running
// or its buffer was full.
func (h *KafkaHandler) Dropped() uint64 {
	return h.dropped.Load()
}

// Failed reports the messages the workers could not send.
func (h *KafkaHandler) Failed() uint64 {
	return h.failed.Load()
}
