package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/deviceauth/kv"
)

// DefaultKey is the kv key holding the session record.
const DefaultKey = "session"

var (
	// ErrSessionNotFound is returned when no session is stored.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionCorrupt is returned when the stored record cannot be decoded.
	ErrSessionCorrupt = errors.New("session corrupt")
	// ErrStoreUnavailable wraps kv faults.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Store reads and writes the session singleton.
type Store struct {
	kv  kv.Store
	key string
}

// NewStore returns a Store using key (DefaultKey when empty).
func NewStore(backend kv.Store, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{kv: backend, key: key}
}

// Key returns the kv key in use.
func (s *Store) Key() string {
	return s.key
}

// Save overwrites the stored session.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Get returns the stored session, ErrSessionNotFound, ErrSessionCorrupt or
// ErrStoreUnavailable.
func (s *Store) Get(ctx context.Context) (*Session, error) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return Decode(data)
}

// Delete removes the stored session. Deleting an absent session is not an error.
func (s *Store) Delete(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
