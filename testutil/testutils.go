package testutil

import (
	"encoding/base64"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SchrodingerZhu/new-chat/crypto"
)

// NewDiscardLogger returns a logger for tests that do not assert on log
// output.
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// GenerateKeyPair returns a fresh box key pair, failing the test on
// generation errors.
func GenerateKeyPair(t *testing.T) *crypto.KeyPair {
	t.Helper()

	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return kp
}

// PublicKeyBase64 returns the base64 encoding of a freshly generated
// public key, for tests that only need well-formed key material.
func PublicKeyBase64(t *testing.T) string {
	t.Helper()

	return GenerateKeyPair(t).PublicKeyBase64()
}

// SealFor builds the ciphertext a client submits to complete a
// handshake: plaintext sealed with the client's secret key for the
// server's public key under the issued nonce. The nonce is taken in its
// base64 wire form, as returned by a registration, and the ciphertext
// is returned base64-encoded the same way.
func SealFor(t *testing.T, plaintext []byte, nonceB64 string, serverKey crypto.PublicKey, client *crypto.KeyPair) string {
	t.Helper()

	nonce, err := crypto.ParseNonce(nonceB64)
	require.NoError(t, err)

	sealed := crypto.Seal(plaintext, nonce, serverKey, client)
	return base64.StdEncoding.EncodeToString(sealed)
}
