// Package crypto provides the key material and authenticated encryption
// primitives for the handshake registry.
//
// This package wraps NaCl box (Curve25519, XSalsa20-Poly1305) and provides:
//
//   - Box key pair generation for the server's long-term identity
//   - PublicKey parsing from the base64 wire encoding
//   - Single-use 24-byte nonces issued as handshake challenges
//   - Seal and Open for authenticated encryption between a client key
//     and the server key pair
//
// The crypto package provides low-level primitives that are used by the
// handshake protocol; it knows nothing about user records or the store.
// Note: box operations are constant-time; base64 parsing is not.
package crypto
