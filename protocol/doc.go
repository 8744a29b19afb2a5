// Package protocol implements the challenge-response handshake between
// clients and the registry.
//
// # State Machine
//
// Each user name moves through the states
//
//	Unregistered -> Registered(nonce=N0) -> Registered(nonce=N1) -> ... -> Evicted
//
// Register performs the first transition: it validates the submitted
// public key, inserts the record, and returns the first nonce as a
// challenge. Decode performs the self-transition: a ciphertext that
// opens correctly under the current nonce proves possession of the
// registered key, and the nonce is rotated so the same ciphertext can
// never be replayed. The reaper performs the final transition by
// evicting records whose owners have gone quiet.
//
// # Message Flow
//
//  1. Client fetches the server's public key
//  2. Client registers a name and its own public key, receiving nonce N0
//  3. Client seals a message with its secret key, the server's public
//     key, and N0
//  4. Server opens the ciphertext with its secret key, the registered
//     public key, and N0; on success it returns the plaintext and N1
//  5. Subsequent messages repeat from step 3 with the latest nonce
//
// # Security Considerations
//
//   - The nonce is both a replay-prevention token and a proof-of-possession
//     challenge; it rotates only on success, so a failed attempt never
//     invalidates a legitimate retry
//   - Decode failures are indistinguishable from unknown names, so an
//     unauthenticated caller cannot probe which names are registered
//   - Box open verifies integrity and authenticity, not just decryption
package protocol
