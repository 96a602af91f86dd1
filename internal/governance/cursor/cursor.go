// Package cursor implements opaque, signed pagination cursors.
//
// A cursor encodes an offset and an issuance timestamp, signed with
// HMAC-SHA256 so that clients cannot mint or modify positions, and bounded
// by a TTL so stale cursors are rejected. Cursors are self-contained: the
// server stores nothing per cursor and performs no cleanup.
//
// Cursors are not replay-protected within their TTL. They are safe for the
// read-only list endpoints they were designed for and must not be reused
// for mutating or sensitive endpoints.
package cursor

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DefaultTTL is the maximum age of a cursor before it is rejected as expired.
const DefaultTTL = 10 * time.Minute

// signatureSize is the length of the HMAC-SHA256 signature appended to the payload.
const signatureSize = sha256.Size

// Sentinel errors returned by Decode. All are client-correctable: the caller
// should re-query without a cursor to start from the first page.
var (
	// ErrMalformed indicates the cursor could not be decoded or parsed.
	ErrMalformed = errors.New("cursor is malformed")

	// ErrInvalidSignature indicates the cursor signature does not match,
	// either because the cursor was tampered with or was issued under a
	// different secret.
	ErrInvalidSignature = errors.New("cursor signature is invalid")

	// ErrExpired indicates the cursor is older than the TTL.
	ErrExpired = errors.New("cursor has expired")
)

// payload is the signed content of a cursor. Field order is fixed by the
// struct definition, which makes the serialized form canonical: the bytes
// signed at encode time are byte-identical to the bytes verified at decode
// time.
type payload struct {
	Offset   int   `json:"offset"`
	IssuedAt int64 `json:"issuedAt"`
}

// Codec encodes and decodes signed pagination cursors. It is stateless and
// safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec creates a Codec using the given server-held secret and the
// default TTL.
func NewCodec(secret []byte) *Codec {
	return &Codec{
		secret: secret,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
}

// NewCodecWithTTL creates a Codec with a custom TTL.
func NewCodecWithTTL(secret []byte, ttl time.Duration) *Codec {
	c := NewCodec(secret)
	if ttl > 0 {
		c.ttl = ttl
	}
	return c
}

// TTL returns the maximum cursor age accepted by Decode.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Encode builds a cursor for the given offset, issued at the current time.
func (c *Codec) Encode(offset int) (string, error) {
	if offset < 0 {
		return "", fmt.Errorf("offset must be non-negative, got %d", offset)
	}

	body, err := json.Marshal(payload{
		Offset:   offset,
		IssuedAt: c.now().Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to serialize cursor payload: %w", err)
	}

	signed := append(body, c.sign(body)...)
	return base64.RawURLEncoding.EncodeToString(signed), nil
}

// Decode verifies a cursor and returns the offset it encodes.
//
// It returns ErrMalformed when the cursor cannot be decoded or parsed,
// ErrInvalidSignature when the signature does not match the payload, and
// ErrExpired when the cursor is older than the TTL. Decode has no side
// effects; it is a pure function of the cursor and the server secret.
func (c *Codec) Decode(cursor string) (int, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(raw) <= signatureSize {
		return 0, fmt.Errorf("%w: truncated", ErrMalformed)
	}

	body := raw[:len(raw)-signatureSize]
	sig := raw[len(raw)-signatureSize:]

	if !hmac.Equal(sig, c.sign(body)) {
		return 0, ErrInvalidSignature
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if p.Offset < 0 {
		return 0, fmt.Errorf("%w: negative offset", ErrMalformed)
	}

	age := c.now().Sub(time.Unix(p.IssuedAt, 0))
	if age > c.ttl {
		return 0, fmt.Errorf("%w: issued %s ago", ErrExpired, age.Truncate(time.Second))
	}

	return p.Offset, nil
}

// sign computes the HMAC-SHA256 signature of the canonical payload bytes.
func (c *Codec) sign(body []byte) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(body)
	return mac.Sum(nil)
}
