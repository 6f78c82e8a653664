package bitfinex

import "fmt"

// AuthError reports a failed authentication: either the signer could not
// produce the credentials, or the venue rejected them.
type AuthError struct {
	Code int
	Msg  string
	Err  error
}

func (e *AuthError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("auth error: %s: %v", e.Msg, e.Err)
	case e.Code != 0:
		return fmt.Sprintf("auth error: %s (code %d)", e.Msg, e.Code)
	default:
		return "auth error: " + e.Msg
	}
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
