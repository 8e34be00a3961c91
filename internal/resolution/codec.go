package resolution

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedState is returned when a pending-state token cannot be decoded.
var ErrMalformedState = errors.New("malformed pending state")

// StateCodec converts a PendingResolution to and from the opaque token
// handed to callers.
type StateCodec interface {
	Encode(p PendingResolution) (string, error)
	Decode(token string) (PendingResolution, error)
}

var b64 = base64.RawURLEncoding

// JSONCodec encodes pending state as base64url JSON. Callers can read it,
// and nothing stops them from editing it.
type JSONCodec struct{}

func (JSONCodec) Encode(p PendingResolution) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding pending state: %w", err)
	}
	return b64.EncodeToString(data), nil
}

func (JSONCodec) Decode(token string) (PendingResolution, error) {
	data, err := b64.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return PendingResolution{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	return unmarshalPending(data)
}

// SignedCodec appends an HMAC-SHA256 signature so edited tokens are rejected.
type SignedCodec struct {
	key []byte
}

// NewSignedCodec creates a SignedCodec with the given key.
func NewSignedCodec(key []byte) (*SignedCodec, error) {
	if len(key) == 0 {
		return nil, errors.New("signing key is empty")
	}
	return &SignedCodec{key: append([]byte(nil), key...)}, nil
}

func (c *SignedCodec) Encode(p PendingResolution) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding pending state: %w", err)
	}
	payload := b64.EncodeToString(data)
	return payload + "." + b64.EncodeToString(c.sign(payload)), nil
}

func (c *SignedCodec) Decode(token string) (PendingResolution, error) {
	payload, sig, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok {
		return PendingResolution{}, fmt.Errorf("%w: missing signature", ErrMalformedState)
	}
	got, err := b64.DecodeString(sig)
	if err != nil {
		return PendingResolution{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if !hmac.Equal(got, c.sign(payload)) {
		return PendingResolution{}, fmt.Errorf("%w: signature mismatch", ErrMalformedState)
	}
	data, err := b64.DecodeString(payload)
	if err != nil {
		return PendingResolution{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	return unmarshalPending(data)
}

func (c *SignedCodec) sign(payload string) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}

func unmarshalPending(data []byte) (PendingResolution, error) {
	var p PendingResolution
	if err := json.Unmarshal(data, &p); err != nil {
		return PendingResolution{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	return p, nil
}
