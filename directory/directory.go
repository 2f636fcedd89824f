package directory

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrDuplicate is returned when the email or username is already registered.
	ErrDuplicate = errors.New("identity already registered")
	// ErrNotFound is returned when no record matches the identifier.
	ErrNotFound = errors.New("identity not found")
	// ErrInvalidRecord is returned for records without an id, email or username.
	ErrInvalidRecord = errors.New("invalid directory record")
	// ErrUnavailable wraps storage faults.
	ErrUnavailable = errors.New("directory unavailable")
)

// User is the identity profile. ID and CreatedAt are immutable once assigned.
type User struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	PhoneNumber string    `json:"phoneNumber"`
	Country     string    `json:"country"`
	DateOfBirth string    `json:"dateOfBirth"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Record binds a password to a user.
type Record struct {
	User     User
	Password string
}

// Directory is the lookup/insert port consumed by the engine.
type Directory interface {
	Insert(ctx context.Context, rec Record) error
	Lookup(ctx context.Context, identifier string) (Record, error)
}

func validate(rec Record) error {
	if strings.TrimSpace(rec.User.ID) == "" ||
		strings.TrimSpace(rec.User.Email) == "" ||
		strings.TrimSpace(rec.User.Username) == "" {
		return ErrInvalidRecord
	}
	return nil
}
