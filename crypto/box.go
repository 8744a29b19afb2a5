package crypto

import "golang.org/x/crypto/nacl/box"

// Seal encrypts and authenticates msg for the given peer under nonce.
// The ciphertext can only be opened with the peer's secret key, kp's
// public key, and exactly this nonce.
func Seal(msg []byte, nonce Nonce, peer PublicKey, kp *KeyPair) []byte {
	return box.Seal(nil, msg, (*[NonceLen]byte)(&nonce), (*[KeyLen]byte)(&peer), &kp.secret)
}

// Open authenticates and decrypts a ciphertext sealed by the peer for
// kp under nonce. It reports ok=false if the ciphertext was sealed with
// a different nonce or key pairing, or was modified in transit.
func Open(ciphertext []byte, nonce Nonce, peer PublicKey, kp *KeyPair) ([]byte, bool) {
	return box.Open(nil, ciphertext, (*[NonceLen]byte)(&nonce), (*[KeyLen]byte)(&peer), &kp.secret)
}
