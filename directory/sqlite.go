package directory

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const (
	lookupQuery = `
SELECT id, first_name, last_name, email, username, phone_number, country, date_of_birth, password, created_at
FROM users
WHERE email = ?1 OR username = ?1
LIMIT 1;
`
	collisionQuery = `
SELECT COUNT(*)
FROM users
WHERE email IN (?1, ?2) OR username IN (?1, ?2);
`
	insertQuery = `
INSERT INTO users (id, first_name, last_name, email, username, phone_number, country, date_of_birth, password, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`
)

// SQLite is a Directory persisted in a local SQLite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database at path and applies bundled migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("directory path is required")
	}

	dsn := "file:" + filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrUnavailable, err)
	}
	// SQLite serializes writers; one connection keeps the collision check and
	// insert from interleaving with another writer.
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("%w: migrations: %v", ErrUnavailable, err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("%w: migrate: %v", ErrUnavailable, err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) Insert(ctx context.Context, rec Record) (err error) {
	if err := validate(rec); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrUnavailable, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("%w: commit: %v", ErrUnavailable, cerr)
		}
	}()

	var taken int
	if err := tx.QueryRowContext(ctx, collisionQuery, rec.User.Email, rec.User.Username).Scan(&taken); err != nil {
		return fmt.Errorf("%w: collision check: %v", ErrUnavailable, err)
	}
	if taken > 0 {
		return ErrDuplicate
	}

	u := rec.User
	if _, err := tx.ExecContext(ctx, insertQuery,
		u.ID, u.FirstName, u.LastName, u.Email, u.Username,
		u.PhoneNumber, u.Country, u.DateOfBirth, rec.Password, toMillis(u.CreatedAt),
	); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicate
		}
		return fmt.Errorf("%w: insert: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *SQLite) Lookup(ctx context.Context, identifier string) (Record, error) {
	var (
		rec       Record
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, lookupQuery, identifier).Scan(
		&rec.User.ID, &rec.User.FirstName, &rec.User.LastName, &rec.User.Email, &rec.User.Username,
		&rec.User.PhoneNumber, &rec.User.Country, &rec.User.DateOfBirth, &rec.Password, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("%w: lookup: %v", ErrUnavailable, err)
	}
	rec.User.CreatedAt = fromMillis(createdAt)
	return rec, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
