package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/box"
)

const (
	// KeyLen is the length of a box public or secret key in bytes.
	KeyLen = 32

	// NonceLen is the length of a box nonce in bytes.
	NonceLen = 24
)

// ErrKeyEncoding indicates a public key string that is not valid base64.
var ErrKeyEncoding = errors.New("public key is not valid base64")

// ErrKeyFormat indicates a decoded public key of the wrong length.
var ErrKeyFormat = errors.New("public key must be 32 bytes")

// PublicKey represents a box public key.
// In the registry, public keys identify registered users and select the
// peer for Seal and Open.
type PublicKey [KeyLen]byte

// NewPublicKeyFromBytes creates a PublicKey from a byte slice.
// The bytes are copied; the returned key does not alias the input.
func NewPublicKeyFromBytes(data []byte) (PublicKey, error) {
	var pk PublicKey
	if len(data) != KeyLen {
		return pk, ErrKeyFormat
	}
	copy(pk[:], data)
	return pk, nil
}

// ParsePublicKey creates a PublicKey from a base64-encoded string.
// Malformed base64 reports ErrKeyEncoding; a decoded key of the wrong
// length reports ErrKeyFormat.
func ParsePublicKey(data string) (PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrKeyEncoding, err)
	}
	return NewPublicKeyFromBytes(raw)
}

// Bytes returns the public key as a byte slice.
// This is useful when the key needs to be serialized or used in
// cryptographic operations.
func (pk PublicKey) Bytes() []byte {
	out := make([]byte, KeyLen)
	copy(out, pk[:])
	return out
}

// Equal compares two public keys for equality in constant time.
func (pk PublicKey) Equal(other PublicKey) bool {
	return subtle.ConstantTimeCompare(pk[:], other[:]) == 1
}

// String returns the base64 encoding of the public key.
// This is the wire representation used by the HTTP API and is safe for
// logging and for use as a map key.
func (pk PublicKey) String() string {
	return base64.StdEncoding.EncodeToString(pk[:])
}

// KeyPair holds the server's long-term box key pair.
// The secret key never leaves this package; callers encrypt and decrypt
// through Seal and Open, which take the KeyPair itself.
type KeyPair struct {
	public PublicKey
	secret [KeyLen]byte
}

// GenerateKeyPair generates a new box key pair.
// The registry generates exactly one key pair at startup and keeps it
// for the lifetime of the process.
func GenerateKeyPair() (*KeyPair, error) {
	pub, sec, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate box key pair: %w", err)
	}
	kp := &KeyPair{}
	copy(kp.public[:], pub[:])
	copy(kp.secret[:], sec[:])
	return kp, nil
}

// Public returns the public half of the key pair.
func (kp *KeyPair) Public() PublicKey {
	return kp.public
}

// PublicKeyBase64 returns the base64 encoding of the public key, as
// served to clients on the public-key endpoint.
func (kp *KeyPair) PublicKeyBase64() string {
	return kp.public.String()
}
