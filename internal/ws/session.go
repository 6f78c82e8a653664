package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alejoacosta74/bitfinex-ws/internal/dispatcher"
	"github.com/alejoacosta74/bitfinex-ws/internal/logger"
	"github.com/alejoacosta74/bitfinex-ws/pkg/bitfinex"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const defaultHandshakeTimeout = 10 * time.Second

// Conn is the subset of *websocket.Conn used by the session.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// DialFunc opens the transport connection.
type DialFunc func(ctx context.Context, url string) (Conn, error)

// State of a Session.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session owns a single websocket connection to the gateway. It writes the
// commands taken from its outbound queue and dispatches every inbound frame
// to an EventHandler.
type Session struct {
	url         string
	dial        DialFunc
	readTimeout time.Duration
	signer      bitfinex.Signer
	resolver    dispatcher.ChannelResolver

	handler    dispatcher.EventHandler
	dispatcher *dispatcher.Dispatcher
	queue      *Queue

	mu      sync.Mutex // protects state and conn
	state   State
	conn    Conn
	running bool
	writeMu sync.Mutex // serialises writes on conn

	logger *logrus.Entry
}

// Option configures a Session.
type Option func(*Session)

// WithURL overrides the gateway endpoint.
func WithURL(url string) Option {
	return func(s *Session) {
		s.url = url
	}
}

// WithDialer replaces the gorilla dialer, mostly for tests.
func WithDialer(dial DialFunc) Option {
	return func(s *Session) {
		s.dial = dial
	}
}

// WithReadTimeout fails the session when no inbound frame arrives within d.
// Zero disables the timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.readTimeout = d
	}
}

func WithSigner(signer bitfinex.Signer) Option {
	return func(s *Session) {
		s.signer = signer
	}
}

// WithResolver gives the decoder access to acknowledged subscriptions.
func WithResolver(r dispatcher.ChannelResolver) Option {
	return func(s *Session) {
		s.resolver = r
	}
}

// NewSession creates a disconnected session delivering events to handler.
func NewSession(handler dispatcher.EventHandler, opts ...Option) *Session {
	s := &Session{
		url:     bitfinex.WebsocketURL,
		dial:    gorillaDial(defaultHandshakeTimeout),
		signer:  bitfinex.NewHMACSigner(),
		handler: handler,
		queue:   NewQueue(),
		state:   StateDisconnected,
		logger:  logger.WithField("component", "ws_session"),
	}
	for _, opt := range opts {
		opt(s)
	}

	var dopts []dispatcher.Option
	if s.resolver != nil {
		dopts = append(dopts, dispatcher.WithResolver(s.resolver))
	}
	s.dispatcher = dispatcher.NewDispatcher(handler, dopts...)
	return s
}

func gorillaDial(handshakeTimeout time.Duration) DialFunc {
	return func(ctx context.Context, url string) (Conn, error) {
		dialer := websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		}
		conn, _, err := dialer.DialContext(ctx, url, nil)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// Sender returns a producer handle on the session's outbound queue.
func (s *Session) Sender() Sender {
	return s.queue.Sender()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect performs the websocket handshake. On failure the error is reported
// to the handler, returned as *TransportError and the session stays
// disconnected.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateDisconnected:
	case StateClosed:
		return ErrSessionClosed
	default:
		return fmt.Errorf("connect: session already %s", s.state)
	}

	s.logger.Debugf("Connecting to %s", s.url)
	conn, err := s.dial(ctx, s.url)
	if err != nil {
		terr := &TransportError{Op: "dial", Err: err}
		s.logger.Error(terr)
		s.handler.OnError(terr)
		return terr
	}

	s.conn = conn
	s.state = StateConnected
	s.logger.Info("Connected to ", s.url)
	return nil
}

// Authenticate signs and writes an auth command directly on the connection,
// bypassing the queue. The reply is delivered to the handler's OnAuth.
//
// It returns ErrNotConnected unless the session is connected, a
// *bitfinex.AuthError when the credentials cannot be signed and a
// *TransportError when the write fails. Auth errors are also reported to the
// handler and leave the connection open.
func (s *Session) Authenticate(apiKey, secret string, dms bool, filters []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnected {
		return fmt.Errorf("authenticate in state %s: %w", s.state, ErrNotConnected)
	}

	cmd, err := bitfinex.NewAuthCommand(s.signer, apiKey, secret, dms, filters)
	if err != nil {
		s.logger.Warn(err)
		s.handler.OnError(err)
		return err
	}

	if err := s.write(s.conn, cmd); err != nil {
		return err
	}
	s.state = StateAuthenticated
	s.logger.Debug("Auth command sent")
	return nil
}

// Run drives the session until it closes. Each iteration writes every queued
// command in order, then waits for one inbound frame and dispatches it.
// Waiting is interrupted by new commands and by ctx.
//
// Run returns nil after a close requested through a Sender, ctx.Err() after
// cancellation (the close handshake is still performed), *CloseError when
// the peer closed the connection and *TransportError on read or write
// failures. The session is closed when Run returns.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateConnected && s.state != StateAuthenticated {
		state := s.state
		s.mu.Unlock()
		if state == StateClosed {
			return ErrSessionClosed
		}
		return fmt.Errorf("run in state %s: %w", state, ErrNotConnected)
	}
	if s.running {
		s.mu.Unlock()
		return errors.New("session loop already running")
	}
	s.running = true
	conn := s.conn
	s.mu.Unlock()

	r := newReader(conn)
	go r.run()
	defer s.finish(conn, r)

	var idle <-chan time.Time
	var timer *time.Timer
	if s.readTimeout > 0 {
		timer = time.NewTimer(s.readTimeout)
		defer timer.Stop()
		idle = timer.C
	}

	s.logger.Debug("Starting session loop")
	pending := false
	for {
		closing, err := s.flush(conn)
		if err != nil {
			return s.fail(err)
		}
		if closing {
			s.closeHandshake(conn)
			return nil
		}

		if !pending {
			r.request()
			pending = true
		}

		select {
		case <-ctx.Done():
			s.logger.Debug("Context cancelled, closing session")
			s.closeHandshake(conn)
			return ctx.Err()

		case <-s.queue.Ready():
			// commands are drained at the top of the loop

		case in := <-r.frames:
			pending = false
			if timer != nil {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(s.readTimeout)
			}
			if err := s.handleInbound(in); err != nil {
				return s.fail(err)
			}

		case <-idle:
			return s.fail(&TransportError{Op: "read", Err: errReadTimeout})
		}
	}
}

// flush writes every queued command. It reports whether a close was
// requested; commands queued after the close are discarded.
func (s *Session) flush(conn Conn) (bool, error) {
	cmds := s.queue.Drain()
	for i, cmd := range cmds {
		if _, ok := cmd.(bitfinex.CloseCommand); ok {
			if rest := len(cmds) - i - 1; rest > 0 {
				s.logger.Warnf("Discarding %d commands queued after close", rest)
			}
			return true, nil
		}
		if err := s.write(conn, cmd); err != nil {
			var terr *TransportError
			if errors.As(err, &terr) {
				return false, err
			}
			// a command that cannot be encoded only affects itself
			s.logger.Warn(err)
			s.handler.OnError(err)
		}
	}
	return false, nil
}

func (s *Session) write(conn Conn, cmd bitfinex.Command) error {
	payload, err := bitfinex.Encode(cmd)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.logger.Tracef("Writing message to WebSocket: %s", payload)
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

func (s *Session) handleInbound(in inbound) error {
	if in.err != nil {
		var ce *websocket.CloseError
		if errors.As(in.err, &ce) {
			return &CloseError{Code: ce.Code, Text: ce.Text}
		}
		return &TransportError{Op: "read", Err: in.err}
	}

	// decode errors are already reported to the handler and never stop the loop
	if err := s.dispatcher.Dispatch(in.data); err != nil {
		s.logger.Debugf("Frame skipped: %v", err)
	}
	return nil
}

// closeHandshake writes a single close frame. Failing to write it does not
// matter since the connection is dropped right after.
func (s *Session) closeHandshake(conn Conn) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.logger.Trace("Sending close message through ws connection")
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		s.logger.Warnf("Error sending close message: %v", err)
	}
}

func (s *Session) fail(err error) error {
	s.logger.Error(err)
	s.handler.OnError(err)
	return err
}

// finish tears the session down. Closing the connection unblocks a pending
// read, which the stopped reader then discards.
func (s *Session) finish(conn Conn, r *reader) {
	r.stop()
	if err := conn.Close(); err != nil {
		s.logger.Debugf("Error closing connection: %v", err)
	}
	if dropped := s.queue.Shutdown(); dropped > 0 {
		s.logger.Warnf("Dropped %d pending commands", dropped)
	}

	s.mu.Lock()
	s.state = StateClosed
	s.conn = nil
	s.running = false
	s.mu.Unlock()
	s.logger.Info("Session closed")
}
