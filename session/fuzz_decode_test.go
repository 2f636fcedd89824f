package session

import (
	"testing"
	"time"

	"github.com/MrEthical07/deviceauth/directory"
)

// FuzzSessionDecode exercises the session decoder with arbitrary inputs.
// Goal: no panics, and every accepted record carries the required fields.
func FuzzSessionDecode(f *testing.F) {
	sess := New(directory.User{ID: "user1", Email: "a@b.co", Username: "user1"}, "tok", time.UnixMilli(1700000000000), time.Hour)
	encoded, err := Encode(sess)
	if err == nil {
		f.Add(encoded)
	}

	f.Add([]byte{})
	f.Add([]byte("{}"))
	f.Add([]byte("null"))
	f.Add([]byte(`{"user":{"id":"x"},"token":"t","expiresAt":"soon"}`))
	f.Add([]byte(`{"user":{"id":"x"},"token":"t","expiresAt":-1}`))
	if len(encoded) > 10 {
		f.Add(encoded[:10])
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := Decode(data)
		if err != nil {
			return
		}
		if s.Token == "" || s.User.ID == "" || s.ExpiresAt <= 0 {
			t.Fatalf("decoder accepted incomplete session: %+v", s)
		}
	})
}
