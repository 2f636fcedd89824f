package session

import (
	"encoding/json"
	"fmt"
)

// Encode serializes s.
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil session", ErrSessionCorrupt)
	}
	return json.Marshal(s)
}

// Decode parses a stored session and validates required fields.
func Decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCorrupt, err)
	}
	if s.Token == "" {
		return nil, fmt.Errorf("%w: missing token", ErrSessionCorrupt)
	}
	if s.User.ID == "" {
		return nil, fmt.Errorf("%w: missing user", ErrSessionCorrupt)
	}
	if s.ExpiresAt <= 0 {
		return nil, fmt.Errorf("%w: missing expiry", ErrSessionCorrupt)
	}
	return &s, nil
}
