/*
Package testutil provides testing utilities for the handshake registry.

It contains the client-side half of the handshake, key generation and
ciphertext construction, so tests can play the role of a registering
user without reimplementing the box plumbing in every package.

# Usage

Registering and completing a handshake in a test:

	client := testutil.GenerateKeyPair(t)
	result := handshake.Register("alice", client.PublicKeyBase64())

	ciphertext := testutil.SealFor(t, []byte("hi"), *result.Nonce, serverKeys.Public(), client)
	plaintext, next, ok := handshake.Decode("alice", ciphertext)

This package is intended for testing purposes only and should not be
used in production code.
*/
package testutil
