package protocol

import (
	"encoding/base64"
	"log/slog"
	"unicode/utf8"

	"github.com/SchrodingerZhu/new-chat/crypto"
	"github.com/SchrodingerZhu/new-chat/metrics"
	"github.com/SchrodingerZhu/new-chat/registry"
)

// Handshake implements the challenge-response protocol over a registry
// store and the server's key pair. All mutable state lives in the
// store; the Handshake itself is stateless and safe for concurrent use.
type Handshake struct {
	keys  *crypto.KeyPair
	store *registry.Store
	log   *slog.Logger
}

// NewHandshake creates the protocol layer. The store is shared with the
// reaper and the HTTP adapter; the key pair is read-only.
func NewHandshake(keys *crypto.KeyPair, store *registry.Store, log *slog.Logger) *Handshake {
	return &Handshake{keys: keys, store: store, log: log}
}

// Result is the outcome of a registration in its wire shape. Nonce is
// null unless the registration succeeded.
type Result struct {
	Success bool    `json:"success"`
	Err     string  `json:"err"`
	Nonce   *string `json:"nonce"`
}

func resultSuccess(nonce crypto.Nonce) Result {
	encoded := nonce.String()
	return Result{Success: true, Nonce: &encoded}
}

func resultFailure(err string) Result {
	return Result{Success: false, Err: err}
}

// Register adds a user under name with the given base64-encoded public
// key and issues the first nonce. A malformed key or an already-taken
// name yields a failure Result; nothing is stored in that case.
func (h *Handshake) Register(name, publicKeyB64 string) Result {
	key, err := crypto.ParsePublicKey(publicKeyB64)
	if err != nil {
		metrics.IncRegistrationInvalidKey()
		h.log.Info("Registration rejected", "name", name, "err", err)
		return resultFailure(err.Error())
	}

	nonce, err := h.store.Insert(name, key)
	if err != nil {
		metrics.IncRegistrationNameTaken()
		h.log.Info("Registration rejected", "name", name, "err", err)
		return resultFailure(err.Error())
	}

	metrics.IncRegistrationSuccess()
	h.log.Info("User registered", "name", name)
	return resultSuccess(nonce)
}

// Decode verifies that the ciphertext was sealed by name's registered
// key for the server under name's current nonce. On success it returns
// the plaintext and a freshly rotated nonce. Every failure (unknown
// name, malformed base64, failed authentication, non-text plaintext)
// reports ok=false and leaves the stored nonce untouched, so the caller
// cannot tell a bad ciphertext apart from an unregistered name.
func (h *Handshake) Decode(name, ciphertextB64 string) (plaintext, newNonce string, ok bool) {
	snap, found := h.store.Lookup(name)
	if !found {
		metrics.IncDecodeFailure()
		return "", "", false
	}

	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		metrics.IncDecodeFailure()
		return "", "", false
	}

	// The snapshot pins the key and nonce for this attempt; the box is
	// opened outside any store lock.
	opened, valid := crypto.Open(ciphertext, snap.Nonce, snap.PublicKey, h.keys)
	if !valid || !utf8.Valid(opened) {
		metrics.IncDecodeFailure()
		return "", "", false
	}

	rotated, stillRegistered := h.store.RotateNonce(name)
	if !stillRegistered {
		// Evicted between lookup and rotation: the handshake did not
		// complete.
		metrics.IncDecodeFailure()
		return "", "", false
	}

	metrics.IncDecodeSuccess()
	h.log.Info("Handshake completed", "name", name)
	return string(opened), rotated.String(), true
}

// ListUsers returns a point-in-time view of all registered users, as
// served on the list endpoint.
func (h *Handshake) ListUsers() []registry.UserView {
	return h.store.SnapshotAll()
}

// ServerPublicKey returns the server's long-term public key.
func (h *Handshake) ServerPublicKey() crypto.PublicKey {
	return h.keys.Public()
}
