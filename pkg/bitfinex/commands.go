package bitfinex

import (
	"encoding/json"
	"fmt"
)

// Command is an outbound protocol command. It is one of SubscribeCommand,
// AuthCommand or CloseCommand.
type Command interface {
	command()
}

// SubscribeCommand subscribes to a public channel. Params are merged into the
// JSON object next to "event" and "channel".
type SubscribeCommand struct {
	Channel ChannelKind
	Params  map[string]interface{}
}

func (SubscribeCommand) command() {}

// MarshalJSON encodes the command as {"event":"subscribe","channel":...,<params>}.
func (c SubscribeCommand) MarshalJSON() ([]byte, error) {
	msg := make(map[string]interface{}, len(c.Params)+2)
	for k, v := range c.Params {
		msg[k] = v
	}
	msg["event"] = EventSubscribe
	msg["channel"] = string(c.Channel)
	return json.Marshal(msg)
}

// AuthCommand authenticates the connection.
type AuthCommand struct {
	APIKey        string
	Nonce         string
	Signature     string
	Payload       string
	DeadManSwitch bool
	Filters       []string
}

func (AuthCommand) command() {}

type authMessage struct {
	Event       string   `json:"event"`
	APIKey      string   `json:"apiKey"`
	AuthSig     string   `json:"authSig"`
	AuthNonce   string   `json:"authNonce"`
	AuthPayload string   `json:"authPayload"`
	Dms         int      `json:"dms,omitempty"`
	Filters     []string `json:"filters"`
}

// MarshalJSON encodes the auth command. "dms" is only present when the dead man
// switch is enabled.
func (c AuthCommand) MarshalJSON() ([]byte, error) {
	msg := authMessage{
		Event:       EventAuth,
		APIKey:      c.APIKey,
		AuthSig:     c.Signature,
		AuthNonce:   c.Nonce,
		AuthPayload: c.Payload,
		Filters:     c.Filters,
	}
	if c.DeadManSwitch {
		msg.Dms = DeadManSwitchFlag
	}
	if msg.Filters == nil {
		msg.Filters = []string{}
	}
	return json.Marshal(msg)
}

// CloseCommand asks the session to perform the close handshake and stop.
type CloseCommand struct{}

func (CloseCommand) command() {}

// Encode serializes a command for the wire. CloseCommand has no wire form.
func Encode(cmd Command) ([]byte, error) {
	switch c := cmd.(type) {
	case SubscribeCommand, AuthCommand:
		return json.Marshal(c)
	case CloseCommand:
		return nil, fmt.Errorf("close command has no wire encoding")
	default:
		return nil, fmt.Errorf("unknown command type %T", cmd)
	}
}

// TickerSubscription subscribes to the ticker of a trading pair or funding currency.
func TickerSubscription(symbol string, et EventType) SubscribeCommand {
	return SubscribeCommand{
		Channel: ChannelTicker,
		Params:  map[string]interface{}{"symbol": FormatSymbol(symbol, et)},
	}
}

// TradesSubscription subscribes to the public trades of a pair or funding currency.
func TradesSubscription(symbol string, et EventType) SubscribeCommand {
	return SubscribeCommand{
		Channel: ChannelTrades,
		Params:  map[string]interface{}{"symbol": FormatSymbol(symbol, et)},
	}
}

// CandlesSubscription subscribes to trading candles, e.g. timeframe "1m".
func CandlesSubscription(symbol, timeframe string) SubscribeCommand {
	return SubscribeCommand{
		Channel: ChannelCandles,
		Params:  map[string]interface{}{"key": CandleKey(symbol, timeframe)},
	}
}

// CandleKey builds the candles channel key "trade:<timeframe>:t<symbol>".
func CandleKey(symbol, timeframe string) string {
	return fmt.Sprintf("trade:%s:t%s", timeframe, symbol)
}

// BookSubscription subscribes to the aggregated order book.
func BookSubscription(symbol string, et EventType, prec, freq string, length uint32) SubscribeCommand {
	return SubscribeCommand{
		Channel: ChannelBook,
		Params: map[string]interface{}{
			"symbol": FormatSymbol(symbol, et),
			"prec":   prec,
			"freq":   freq,
			"len":    length,
		},
	}
}

// RawBookSubscription subscribes to the raw (per order) book.
func RawBookSubscription(symbol string, et EventType) SubscribeCommand {
	return SubscribeCommand{
		Channel: ChannelBook,
		Params: map[string]interface{}{
			"prec": RawBookPrecision,
			"pair": FormatSymbol(symbol, et),
		},
	}
}

// NewAuthCommand signs "AUTH"+nonce with secret and builds the auth command.
// Signer failures are returned as *AuthError.
func NewAuthCommand(signer Signer, apiKey, secret string, dms bool, filters []string) (AuthCommand, error) {
	nonce, err := signer.Nonce()
	if err != nil {
		return AuthCommand{}, &AuthError{Msg: "failed to generate nonce", Err: err}
	}

	payload := "AUTH" + nonce
	sig, err := signer.Sign(secret, payload)
	if err != nil {
		return AuthCommand{}, &AuthError{Msg: "failed to sign auth payload", Err: err}
	}

	return AuthCommand{
		APIKey:        apiKey,
		Nonce:         nonce,
		Signature:     sig,
		Payload:       payload,
		DeadManSwitch: dms,
		Filters:       filters,
	}, nil
}
