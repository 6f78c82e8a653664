package dispatcher

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alejoacosta74/bitfinex-ws/pkg/bitfinex"
)

// MessageKind is the top level classification of an inbound frame.
type MessageKind int

const (
	KindUnknown MessageKind = iota
	KindInfo
	KindSubscribed
	KindAuth
	KindData
)

func (k MessageKind) String() string {
	switch k {
	case KindInfo:
		return "info"
	case KindSubscribed:
		return "subscribed"
	case KindAuth:
		return "auth"
	case KindData:
		return "data"
	default:
		return "unknown"
	}
}

var errEmptyFrame = errors.New("empty frame")

// Classify determines the kind of a frame from its structure.
//
// A JSON object is a notification and its "event" field selects the kind.
// A JSON array is a data frame. Anything else, including an object with an
// unrecognized or error event, yields a *DecodeError.
func Classify(frame []byte) (MessageKind, error) {
	trimmed := bytes.TrimSpace(frame)
	if len(trimmed) == 0 {
		return KindUnknown, newDecodeError(frame, errEmptyFrame)
	}

	switch trimmed[0] {
	case '[':
		return KindData, nil
	case '{':
		var envelope struct {
			Event string `json:"event"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return KindUnknown, newDecodeError(frame, err)
		}
		switch envelope.Event {
		case bitfinex.EventInfo:
			return KindInfo, nil
		case bitfinex.EventSubscribed:
			return KindSubscribed, nil
		case bitfinex.EventAuth:
			return KindAuth, nil
		case "":
			return KindUnknown, newDecodeError(frame, errors.New("object without event field"))
		default:
			return KindUnknown, newDecodeError(frame, fmt.Errorf("unsupported event %q", envelope.Event))
		}
	default:
		return KindUnknown, newDecodeError(frame, fmt.Errorf("unexpected leading byte %q", trimmed[0]))
	}
}
