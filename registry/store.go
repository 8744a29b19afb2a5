package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/SchrodingerZhu/new-chat/crypto"
)

// ErrNameTaken indicates an insert for a name that is already registered.
var ErrNameTaken = errors.New("name exists")

// Store is the in-memory user record store shared by the handshake
// protocol, the HTTP adapter, and the reaper.
//
// A single RWMutex guards the map: reads proceed concurrently, writes
// are exclusive, and mutations of the same record are totally ordered.
// A record's nonce and lastActive always change together under the
// write lock, so readers never observe one without the other.
type Store struct {
	mu    sync.RWMutex
	users map[string]*userRecord

	now func() time.Time
}

// NewStore creates an empty store using the system clock.
func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock creates an empty store that reads time from now.
// Tests substitute a simulated clock to drive eviction.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		users: make(map[string]*userRecord),
		now:   now,
	}
}

// Exists reports whether a record is registered under name.
func (s *Store) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, found := s.users[name]
	return found
}

// Insert registers a new user and issues their first nonce.
// The existence check and the insert happen under one write lock:
// concurrent inserts for the same name admit exactly one winner, the
// rest get ErrNameTaken.
func (s *Store) Insert(name string, key crypto.PublicKey) (crypto.Nonce, error) {
	nonce := crypto.NewNonce()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.users[name]; found {
		return crypto.Nonce{}, ErrNameTaken
	}
	s.users[name] = &userRecord{
		name:       name,
		publicKey:  key,
		nonce:      nonce,
		lastActive: s.now(),
	}
	return nonce, nil
}

// RotateNonce replaces the nonce for name and refreshes lastActive in
// one step. It reports false if name is not registered.
func (s *Store) RotateNonce(name string) (crypto.Nonce, bool) {
	nonce := crypto.NewNonce()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, found := s.users[name]
	if !found {
		return crypto.Nonce{}, false
	}
	rec.nonce = nonce
	rec.lastActive = s.now()
	return nonce, true
}

// Lookup returns a snapshot of the record registered under name.
func (s *Store) Lookup(name string) (RecordSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, found := s.users[name]
	if !found {
		return RecordSnapshot{}, false
	}
	return RecordSnapshot{PublicKey: rec.publicKey, Nonce: rec.nonce}, true
}

// SnapshotAll returns a point-in-time view of every record. Ordering is
// unspecified.
func (s *Store) SnapshotAll() []UserView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]UserView, 0, len(s.users))
	for _, rec := range s.users {
		views = append(views, rec.view())
	}
	return views
}

// EvictIdleSince removes every record that has been inactive for longer
// than idleWindow and returns the number removed. Running it again with
// no intervening activity removes nothing.
func (s *Store) EvictIdleSince(idleWindow time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	evicted := 0
	for name, rec := range s.users {
		if rec.lastActive.Add(idleWindow).Before(now) {
			delete(s.users, name)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of registered users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.users)
}
