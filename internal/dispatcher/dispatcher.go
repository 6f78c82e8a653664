package dispatcher

import (
	"github.com/alejoacosta74/bitfinex-ws/internal/logger"
	"github.com/alejoacosta74/bitfinex-ws/pkg/bitfinex"
	"github.com/sirupsen/logrus"
)

// EventHandler receives every decoded event of a session. Callbacks are
// invoked sequentially from the session loop and must not block for long.
type EventHandler interface {
	OnConnect(ev *bitfinex.InfoEvent)
	OnAuth(ev *bitfinex.AuthEvent)
	OnSubscribed(ev *bitfinex.SubscribedEvent)
	OnDataEvent(ev bitfinex.DataEvent)
	OnError(err error)
}

// Dispatcher routes inbound frames to an EventHandler.
type Dispatcher struct {
	handler  EventHandler
	resolver ChannelResolver
	logger   *logrus.Entry
}

type Option func(*Dispatcher)

// WithResolver lets the decoder use acknowledged subscriptions to pick the
// schema of data frames instead of guessing from the payload width.
func WithResolver(r ChannelResolver) Option {
	return func(d *Dispatcher) {
		d.resolver = r
	}
}

// NewDispatcher creates a dispatcher delivering to handler.
func NewDispatcher(handler EventHandler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		handler: handler,
		logger:  logger.WithField("component", "dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch processes a single frame:
//  1. Classify the frame (notification or data)
//  2. Decode it into its typed event
//  3. Invoke the matching handler callback
//
// Heartbeats are decoded and dropped. A frame that cannot be classified or
// decoded is reported to OnError and the *DecodeError is returned; it never
// terminates the session. An auth reply with a non OK status is delivered to
// OnAuth and additionally reported to OnError as *bitfinex.AuthError.
func (d *Dispatcher) Dispatch(frame []byte) error {
	kind, err := Classify(frame)
	if err != nil {
		return d.fail(err)
	}

	if kind == KindData {
		ev, err := DecodeData(frame, d.resolver)
		if err != nil {
			return d.fail(err)
		}
		if _, ok := ev.(bitfinex.HeartbeatEvent); ok {
			d.logger.Tracef("Heartbeat on channel %d", ev.ChannelID())
			return nil
		}
		d.handler.OnDataEvent(ev)
		return nil
	}

	ev, err := DecodeNotification(kind, frame)
	if err != nil {
		return d.fail(err)
	}

	switch e := ev.(type) {
	case *bitfinex.InfoEvent:
		d.logger.Debugf("Connected to gateway version %d (platform status %d)", e.Version, e.Platform.Status)
		d.handler.OnConnect(e)
	case *bitfinex.SubscribedEvent:
		d.logger.Debugf("Subscribed to %s, chan_id %d", e.ChannelKind(), e.ChanID)
		d.handler.OnSubscribed(e)
	case *bitfinex.AuthEvent:
		d.handler.OnAuth(e)
		if !e.IsOK() {
			d.handler.OnError(authFailure(e))
		}
	}
	return nil
}

func (d *Dispatcher) fail(err error) error {
	d.logger.Warn(err)
	d.handler.OnError(err)
	return err
}

func authFailure(e *bitfinex.AuthEvent) *bitfinex.AuthError {
	authErr := &bitfinex.AuthError{Msg: "authentication rejected with status " + e.Status}
	if e.Code != nil {
		authErr.Code = *e.Code
	}
	if e.Msg != nil {
		authErr.Msg = *e.Msg
	}
	return authErr
}
