package dispatcher

import "fmt"

const maxFrameInError = 256

// DecodeError reports an inbound frame that could not be classified or
// decoded. It is not fatal for the session.
type DecodeError struct {
	Frame []byte
	Err   error
}

func newDecodeError(frame []byte, err error) *DecodeError {
	return &DecodeError{Frame: frame, Err: err}
}

func (e *DecodeError) Error() string {
	frame := e.Frame
	if len(frame) > maxFrameInError {
		frame = frame[:maxFrameInError]
	}
	return fmt.Sprintf("decode error: %v (frame: %s)", e.Err, frame)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
