package session

import (
	"time"

	"github.com/MrEthical07/deviceauth/directory"
)

// Session is the persisted authentication session for this device.
type Session struct {
	User      directory.User `json:"user"`
	Token     string         `json:"token"`
	ExpiresAt int64          `json:"expiresAt"`
}

// New builds a session for user that expires ttl after now.
func New(user directory.User, token string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		User:      user,
		Token:     token,
		ExpiresAt: now.Add(ttl).UnixMilli(),
	}
}

// Expiry returns ExpiresAt as a time.
func (s *Session) Expiry() time.Time {
	return time.UnixMilli(s.ExpiresAt)
}

// Expired reports whether the session is no longer valid at now. A session is
// valid only while now is strictly before its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.UnixMilli() >= s.ExpiresAt
}
