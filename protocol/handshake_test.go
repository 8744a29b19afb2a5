package protocol

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SchrodingerZhu/new-chat/crypto"
	"github.com/SchrodingerZhu/new-chat/registry"
	"github.com/SchrodingerZhu/new-chat/testutil"
)

func setupHandshake(t *testing.T) (*Handshake, *registry.Store) {
	t.Helper()

	keys, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	store := registry.NewStore()
	return NewHandshake(keys, store, testutil.NewDiscardLogger()), store
}

func TestHandshake_Register(t *testing.T) {
	hs, store := setupHandshake(t)

	result := hs.Register("alice", testutil.PublicKeyBase64(t))
	require.True(t, result.Success)
	require.Empty(t, result.Err)
	require.NotNil(t, result.Nonce)

	nonce, err := crypto.ParseNonce(*result.Nonce)
	require.NoError(t, err)
	require.NotEqual(t, crypto.Nonce{}, nonce)

	require.True(t, store.Exists("alice"))
}

func TestHandshake_RegisterDuplicateName(t *testing.T) {
	hs, _ := setupHandshake(t)

	first := hs.Register("alice", testutil.PublicKeyBase64(t))
	require.True(t, first.Success)

	second := hs.Register("alice", testutil.PublicKeyBase64(t))
	require.False(t, second.Success)
	require.Equal(t, "name exists", second.Err)
	require.Nil(t, second.Nonce)
}

func TestHandshake_RegisterBadKeyEncoding(t *testing.T) {
	hs, store := setupHandshake(t)

	result := hs.Register("alice", "*** not base64 ***")
	require.False(t, result.Success)
	require.Contains(t, result.Err, "base64")
	require.Nil(t, result.Nonce)
	require.False(t, store.Exists("alice"))
}

func TestHandshake_RegisterBadKeyLength(t *testing.T) {
	hs, store := setupHandshake(t)

	short := base64.StdEncoding.EncodeToString([]byte("short key"))
	result := hs.Register("alice", short)
	require.False(t, result.Success)
	require.Contains(t, result.Err, "32 bytes")
	require.False(t, store.Exists("alice"))
}

func TestHandshake_DecodeRoundTrip(t *testing.T) {
	hs, _ := setupHandshake(t)
	client := testutil.GenerateKeyPair(t)

	result := hs.Register("alice", client.PublicKeyBase64())
	require.True(t, result.Success)

	ciphertext := testutil.SealFor(t, []byte("hello registry"), *result.Nonce, hs.ServerPublicKey(), client)

	plaintext, newNonce, ok := hs.Decode("alice", ciphertext)
	require.True(t, ok)
	assert.Equal(t, "hello registry", plaintext)
	assert.NotEmpty(t, newNonce)
	assert.NotEqual(t, *result.Nonce, newNonce)
}

func TestHandshake_DecodeUnknownName(t *testing.T) {
	hs, _ := setupHandshake(t)

	plaintext, nonce, ok := hs.Decode("nobody", "d2hhdGV2ZXI=")
	require.False(t, ok)
	require.Empty(t, plaintext)
	require.Empty(t, nonce)
}

func TestHandshake_DecodeFailureKeepsNonce(t *testing.T) {
	hs, _ := setupHandshake(t)
	client := testutil.GenerateKeyPair(t)

	result := hs.Register("alice", client.PublicKeyBase64())
	require.True(t, result.Success)

	// Garbage that is not even base64.
	_, _, ok := hs.Decode("alice", "!!! garbage !!!")
	require.False(t, ok)

	// Well-formed base64 that is not a valid box.
	_, _, ok = hs.Decode("alice", base64.StdEncoding.EncodeToString([]byte("junk ciphertext")))
	require.False(t, ok)

	// Failed attempts do not consume the nonce.
	ciphertext := testutil.SealFor(t, []byte("still here"), *result.Nonce, hs.ServerPublicKey(), client)
	plaintext, _, ok := hs.Decode("alice", ciphertext)
	require.True(t, ok)
	assert.Equal(t, "still here", plaintext)
}

func TestHandshake_DecodeReplayRejected(t *testing.T) {
	hs, _ := setupHandshake(t)
	client := testutil.GenerateKeyPair(t)

	result := hs.Register("alice", client.PublicKeyBase64())
	require.True(t, result.Success)

	ciphertext := testutil.SealFor(t, []byte("one shot"), *result.Nonce, hs.ServerPublicKey(), client)

	_, newNonce, ok := hs.Decode("alice", ciphertext)
	require.True(t, ok)

	// The nonce rotated, so the same ciphertext must now fail.
	_, _, ok = hs.Decode("alice", ciphertext)
	require.False(t, ok)

	// A fresh ciphertext under the rotated nonce succeeds.
	next := testutil.SealFor(t, []byte("two"), newNonce, hs.ServerPublicKey(), client)
	plaintext, _, ok := hs.Decode("alice", next)
	require.True(t, ok)
	assert.Equal(t, "two", plaintext)
}

func TestHandshake_DecodeWrongClientKey(t *testing.T) {
	hs, _ := setupHandshake(t)
	client := testutil.GenerateKeyPair(t)
	impostor := testutil.GenerateKeyPair(t)

	result := hs.Register("alice", client.PublicKeyBase64())
	require.True(t, result.Success)

	ciphertext := testutil.SealFor(t, []byte("let me in"), *result.Nonce, hs.ServerPublicKey(), impostor)

	_, _, ok := hs.Decode("alice", ciphertext)
	require.False(t, ok)
}

func TestHandshake_DecodeRejectsNonTextPlaintext(t *testing.T) {
	hs, _ := setupHandshake(t)
	client := testutil.GenerateKeyPair(t)

	result := hs.Register("alice", client.PublicKeyBase64())
	require.True(t, result.Success)

	ciphertext := testutil.SealFor(t, []byte{0xff, 0xfe, 0xfd}, *result.Nonce, hs.ServerPublicKey(), client)
	_, _, ok := hs.Decode("alice", ciphertext)
	require.False(t, ok)

	// Rejection must not consume the nonce.
	valid := testutil.SealFor(t, []byte("text"), *result.Nonce, hs.ServerPublicKey(), client)
	plaintext, _, ok := hs.Decode("alice", valid)
	require.True(t, ok)
	assert.Equal(t, "text", plaintext)
}

func TestHandshake_DecodeAfterEviction(t *testing.T) {
	keys, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	current := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := registry.NewStoreWithClock(func() time.Time { return current })
	hs := NewHandshake(keys, store, testutil.NewDiscardLogger())

	client := testutil.GenerateKeyPair(t)
	result := hs.Register("bob", client.PublicKeyBase64())
	require.True(t, result.Success)

	current = current.Add(16 * time.Minute)
	require.Equal(t, 1, store.EvictIdleSince(15*time.Minute))

	ciphertext := testutil.SealFor(t, []byte("too late"), *result.Nonce, hs.ServerPublicKey(), client)
	plaintext, nonce, ok := hs.Decode("bob", ciphertext)
	require.False(t, ok)
	require.Empty(t, plaintext)
	require.Empty(t, nonce)
}

func TestHandshake_ListUsers(t *testing.T) {
	hs, _ := setupHandshake(t)

	require.Empty(t, hs.ListUsers())

	require.True(t, hs.Register("alice", testutil.PublicKeyBase64(t)).Success)
	require.True(t, hs.Register("bob", testutil.PublicKeyBase64(t)).Success)

	views := hs.ListUsers()
	require.Len(t, views, 2)

	names := map[string]bool{}
	for _, view := range views {
		names[view.Name] = true
	}
	assert.True(t, names["alice"])
	assert.True(t, names["bob"])
}
