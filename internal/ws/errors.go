package ws

import (
	"errors"
	"fmt"
)

var (
	// ErrDisconnected is returned to producers once the session no longer
	// consumes the outbound queue.
	ErrDisconnected = errors.New("outbound queue disconnected")

	// ErrNotConnected is returned when an operation requires an open
	// connection. It signals a misuse of the session, not a network failure.
	ErrNotConnected = errors.New("session is not connected")

	// ErrSessionClosed is returned when a closed session is reused.
	ErrSessionClosed = errors.New("session is closed")

	errReadTimeout = errors.New("no inbound frame within read timeout")
)

// TransportError is a dial, read or write failure on the connection. It is
// fatal for the session.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// CloseError reports that the peer closed the connection.
type CloseError struct {
	Code int
	Text string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("connection closed by peer (code %d): %s", e.Code, e.Text)
}
