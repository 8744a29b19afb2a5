package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Nonce is a single-use box nonce issued as a handshake challenge.
// Each registered user holds exactly one live nonce at a time; a
// successful decode replaces it.
type Nonce [NonceLen]byte

// NewNonce returns a fresh random nonce.
// It panics if the system randomness source fails.
func NewNonce() Nonce {
	var n Nonce
	if _, err := rand.Read(n[:]); err != nil {
		panic(fmt.Sprintf("crypto: read random nonce: %v", err))
	}
	return n
}

// ParseNonce creates a Nonce from its base64 encoding.
func ParseNonce(data string) (Nonce, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return Nonce{}, fmt.Errorf("nonce is not valid base64: %w", err)
	}
	if len(raw) != NonceLen {
		return Nonce{}, fmt.Errorf("nonce must be %d bytes, got %d", NonceLen, len(raw))
	}
	var n Nonce
	copy(n[:], raw)
	return n, nil
}

// String returns the base64 encoding of the nonce, as issued to clients
// in handshake responses.
func (n Nonce) String() string {
	return base64.StdEncoding.EncodeToString(n[:])
}
