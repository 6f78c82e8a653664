package ws

import (
	"sync"

	"github.com/alejoacosta74/bitfinex-ws/internal/logger"
	"github.com/sirupsen/logrus"
)

// inbound is the result of one ReadMessage call.
type inbound struct {
	msgType int
	data    []byte
	err     error
}

// reader performs blocking reads on behalf of the session loop. It reads
// exactly one frame per request, so the connection is never read ahead of
// what the session asked for, and the session can wait for a frame in a
// select together with its other wake-up sources.
type reader struct {
	conn     Conn
	demand   chan struct{}
	frames   chan inbound
	done     chan struct{}
	stopOnce sync.Once
	logger   *logrus.Entry
}

func newReader(conn Conn) *reader {
	return &reader{
		conn:   conn,
		demand: make(chan struct{}, 1),
		frames: make(chan inbound),
		done:   make(chan struct{}),
		logger: logger.WithField("component", "ws_reader"),
	}
}

// run loops until stop is called or a read fails.
func (r *reader) run() {
	r.logger.Trace("Starting reader")
	defer r.logger.Trace("Reader stopped")

	for {
		select {
		case <-r.done:
			return
		case <-r.demand:
		}

		// ReadMessage blocks until a frame arrives or the connection is closed
		msgType, data, err := r.conn.ReadMessage()

		select {
		case r.frames <- inbound{msgType: msgType, data: data, err: err}:
		case <-r.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// request asks for the next frame. Callers must not request again before the
// previous frame was received.
func (r *reader) request() {
	select {
	case r.demand <- struct{}{}:
	default:
	}
}

func (r *reader) stop() {
	r.stopOnce.Do(func() { close(r.done) })
}
