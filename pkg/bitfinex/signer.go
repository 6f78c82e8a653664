package bitfinex

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Signer produces the nonce and signature used to authenticate a connection.
type Signer interface {
	Nonce() (string, error)
	Sign(secret, payload string) (string, error)
}

// HMACSigner signs payloads with HMAC-SHA384 and uses the current time in
// microseconds as nonce.
type HMACSigner struct {
	now func() time.Time
}

// NewHMACSigner returns a signer backed by the system clock.
func NewHMACSigner() *HMACSigner {
	return &HMACSigner{now: time.Now}
}

// Nonce returns a strictly increasing value as long as the clock does not go back.
func (s *HMACSigner) Nonce() (string, error) {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return strconv.FormatInt(now().UnixMicro(), 10), nil
}

// Sign returns hex(HMAC-SHA384(secret, payload)).
func (s *HMACSigner) Sign(secret, payload string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("empty api secret")
	}
	mac := hmac.New(sha512.New384, []byte(secret))
	if _, err := mac.Write([]byte(payload)); err != nil {
		return "", err
	}
	return hex.EncodeToString(mac.Sum(nil)), nil
}
