package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("key not found")
	// ErrUnavailable wraps backend faults (I/O, connection, corrupt counters).
	ErrUnavailable = errors.New("kv backend unavailable")
)

// Store is the persistence port consumed by the engine.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Incr atomically increments the integer stored at key (absent counts as 0)
	// and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	Close() error
}

// GetInt64 reads an integer-string value. Missing keys return ErrNotFound.
func GetInt64(ctx context.Context, s Store, key string) (int64, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: parse %s: %v", ErrUnavailable, key, err)
	}
	return n, nil
}

// SetInt64 writes n as a base-10 integer string.
func SetInt64(ctx context.Context, s Store, key string, n int64) error {
	return s.Set(ctx, key, []byte(strconv.FormatInt(n, 10)))
}

// GetJSON decodes the JSON value at key into v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// SetJSON encodes v as JSON and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

func incrBytes(current []byte) ([]byte, int64, error) {
	var n int64
	if len(current) > 0 {
		parsed, err := strconv.ParseInt(string(current), 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: counter is not an integer: %v", ErrUnavailable, err)
		}
		n = parsed
	}
	n++
	return []byte(strconv.FormatInt(n, 10)), n, nil
}
