package directory

import (
	"context"
	"sync"
)

// Memory is an in-process Directory.
type Memory struct {
	mu    sync.RWMutex
	byKey map[string]*Record
}

// NewMemory returns an empty directory.
func NewMemory() *Memory {
	return &Memory{byKey: make(map[string]*Record)}
}

func (m *Memory) Insert(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(rec); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byKey[rec.User.Email]; ok {
		return ErrDuplicate
	}
	if _, ok := m.byKey[rec.User.Username]; ok {
		return ErrDuplicate
	}

	stored := rec
	m.byKey[rec.User.Email] = &stored
	m.byKey[rec.User.Username] = &stored
	return nil
}

func (m *Memory) Lookup(ctx context.Context, identifier string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byKey[identifier]
	if !ok {
		return Record{}, ErrNotFound
	}
	return *rec, nil
}

// Len reports the number of distinct records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[*Record]struct{}, len(m.byKey))
	for _, rec := range m.byKey {
		seen[rec] = struct{}{}
	}
	return len(seen)
}
