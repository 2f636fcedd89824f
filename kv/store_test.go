package kv

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	bolt, err := OpenBolt(filepath.Join(t.TempDir(), "kv.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rs := NewRedis(rdb, "test")
	t.Cleanup(func() { _ = rs.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"bolt":   bolt,
		"redis":  rs,
	}
}

func TestStore_GetSetDelete(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Get(ctx, "missing")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "theme_mode", []byte("dark")))
			got, err := s.Get(ctx, "theme_mode")
			require.NoError(t, err)
			assert.Equal(t, "dark", string(got))

			require.NoError(t, s.Set(ctx, "theme_mode", []byte("light")))
			got, err = s.Get(ctx, "theme_mode")
			require.NoError(t, err)
			assert.Equal(t, "light", string(got))

			require.NoError(t, s.Delete(ctx, "theme_mode"))
			require.NoError(t, s.Delete(ctx, "theme_mode"), "delete must be idempotent")
			_, err = s.Get(ctx, "theme_mode")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_IncrStartsAtOneAndStoresDecimal(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for want := int64(1); want <= 3; want++ {
				n, err := s.Incr(ctx, "login_attempts")
				require.NoError(t, err)
				assert.Equal(t, want, n)
			}

			n, err := GetInt64(ctx, s, "login_attempts")
			require.NoError(t, err)
			assert.Equal(t, int64(3), n)

			raw, err := s.Get(ctx, "login_attempts")
			require.NoError(t, err)
			assert.Equal(t, "3", string(raw))
		})
	}
}

func TestStore_IncrIsAtomic(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			const workers = 16
			const perWorker = 25

			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < perWorker; j++ {
						_, err := s.Incr(ctx, "counter")
						assert.NoError(t, err)
					}
				}()
			}
			wg.Wait()

			n, err := GetInt64(ctx, s, "counter")
			require.NoError(t, err)
			assert.Equal(t, int64(workers*perWorker), n)
		})
	}
}

func TestStore_IncrRejectsNonIntegerValue(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Set(ctx, "login_attempts", []byte("five")))

	_, err := s.Incr(ctx, "login_attempts")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	type draft struct {
		Email string `json:"email"`
	}
	require.NoError(t, SetJSON(ctx, s, "registration_draft", draft{Email: "a@x.com"}))

	var got draft
	require.NoError(t, GetJSON(ctx, s, "registration_draft", &got))
	assert.Equal(t, "a@x.com", got.Email)

	require.NoError(t, s.Set(ctx, "registration_draft", []byte("{not json")))
	require.ErrorIs(t, GetJSON(ctx, s, "registration_draft", &got), ErrUnavailable)
}

func TestBolt_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := OpenBolt(path, "")
	require.NoError(t, err)
	require.NoError(t, SetInt64(ctx, s, "lockout_until", 1700000000000))
	_, err = s.Incr(ctx, "login_attempts")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := OpenBolt(path, "")
	require.NoError(t, err)
	defer reopened.Close()

	until, err := GetInt64(ctx, reopened, "lockout_until")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), until)

	attempts, err := GetInt64(ctx, reopened, "login_attempts")
	require.NoError(t, err)
	assert.Equal(t, int64(1), attempts)
}

func TestRedis_PrefixesKeys(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedis(rdb, "device-1")
	defer s.Close()

	require.NoError(t, s.Set(ctx, "session", []byte("{}")))
	assert.True(t, mr.Exists("device-1:session"))
}

func TestRedis_UnavailableBackend(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	s := NewRedis(rdb, "")
	defer s.Close()
	mr.Close()

	_, err := s.Incr(ctx, "login_attempts")
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = s.Get(ctx, "session")
	require.ErrorIs(t, err, ErrUnavailable)
}
