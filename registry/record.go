package registry

import (
	"time"

	"github.com/SchrodingerZhu/new-chat/crypto"
)

// userRecord is the live state for one registered user. Records never
// leave the store; callers receive copies.
type userRecord struct {
	name       string
	publicKey  crypto.PublicKey
	nonce      crypto.Nonce
	lastActive time.Time
}

// UserView is the public listing representation of a record.
type UserView struct {
	Name       string `json:"name"`
	PublicKey  string `json:"pubkey"`
	LastActive string `json:"last_active"`
}

// RecordSnapshot is a point-in-time copy of a record's handshake state.
// Rotations and evictions that happen after Lookup returns do not
// affect it.
type RecordSnapshot struct {
	PublicKey crypto.PublicKey
	Nonce     crypto.Nonce
}

func (r *userRecord) view() UserView {
	return UserView{
		Name:       r.name,
		PublicKey:  r.publicKey.String(),
		LastActive: r.lastActive.UTC().Format(time.RFC3339),
	}
}
