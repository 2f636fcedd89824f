package vault

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

const (
	envelopeVersion = 1
	saltSize        = 16
	keySize         = 32

	kdfTime    = 1
	kdfMemory  = 64 * 1024
	kdfThreads = 4
)

// envelope is the on-disk format. []byte fields are base64 in JSON.
type envelope struct {
	Version int    `json:"v"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Data    []byte `json:"data"`
}

// FileVault persists the sealed credential pair in <dir>/<service>.vault.
type FileVault struct {
	mu           sync.Mutex
	path         string
	deviceSecret []byte
	locker       Locker
}

// Option configures a FileVault.
type Option func(*FileVault)

// WithLocker gates access on the device-unlock state.
func WithLocker(l Locker) Option {
	return func(v *FileVault) { v.locker = l }
}

// WithService overrides the file name stem (default [DefaultService]).
func WithService(service string) Option {
	return func(v *FileVault) {
		if strings.TrimSpace(service) != "" {
			v.path = filepath.Join(filepath.Dir(v.path), service+".vault")
		}
	}
}

// NewFileVault creates a vault rooted at dir. deviceSecret must be at least 16
// bytes; it is never written to disk.
func NewFileVault(dir string, deviceSecret []byte, opts ...Option) (*FileVault, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("vault directory is required")
	}
	if len(deviceSecret) < 16 {
		return nil, errors.New("device secret must be at least 16 bytes")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	v := &FileVault{
		path:         filepath.Join(filepath.Clean(dir), DefaultService+".vault"),
		deviceSecret: append([]byte(nil), deviceSecret...),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Path returns the sealed file location.
func (v *FileVault) Path() string { return v.path }

func (v *FileVault) Save(ctx context.Context, creds Credentials) error {
	if err := checkUnlocked(ctx, v.locker); err != nil {
		return err
	}

	plaintext, err := json.Marshal(creds)
	if err != nil {
		return err
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return err
	}
	aead, err := v.aead(salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}

	env := envelope{
		Version: envelopeVersion,
		Salt:    salt,
		Nonce:   nonce,
		Data:    aead.Seal(nil, nonce, plaintext, []byte(filepath.Base(v.path))),
	}
	blob, err := json.Marshal(env)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	return writeFileAtomic(v.path, blob)
}

func (v *FileVault) Get(ctx context.Context) (*Credentials, error) {
	if err := checkUnlocked(ctx, v.locker); err != nil {
		return nil, err
	}

	v.mu.Lock()
	blob, err := os.ReadFile(v.path)
	v.mu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if env.Version != envelopeVersion || len(env.Salt) != saltSize {
		return nil, fmt.Errorf("%w: unsupported envelope", ErrCorrupt)
	}

	aead, err := v.aead(env.Salt)
	if err != nil {
		return nil, err
	}
	if len(env.Nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce", ErrCorrupt)
	}
	plaintext, err := aead.Open(nil, env.Nonce, env.Data, []byte(filepath.Base(v.path)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var creds Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &creds, nil
}

func (v *FileVault) Clear(ctx context.Context) error {
	if err := checkUnlocked(ctx, v.locker); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := os.Remove(v.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (v *FileVault) aead(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(v.deviceSecret, salt, kdfTime, kdfMemory, kdfThreads, keySize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".vault-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
