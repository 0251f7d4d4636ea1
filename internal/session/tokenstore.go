package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/parisxmas/central-admin/internal/presenter"
	"golang.org/x/crypto/hkdf"
)

// TokenStore persists the session between runs.
type TokenStore interface {
	Load() (presenter.Session, error)
	Save(presenter.Session) error
	Clear() error
}

// MemoryStore keeps the session in memory only.
type MemoryStore struct {
	mu      sync.Mutex
	session *presenter.Session
}

func (m *MemoryStore) Load() (presenter.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return presenter.Session{}, ErrNoSession
	}
	return *m.session, nil
}

func (m *MemoryStore) Save(s presenter.Session) error {
	m.mu.Lock()
	m.session = &s
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
	return nil
}

const sessionKeyInfo = "central-admin session file"

// FileStore keeps the session in a file sealed with AES-256-GCM. The key is
// derived from a secret with HKDF-SHA256.
type FileStore struct {
	path string
	aead cipher.AEAD
}

// NewFileStore returns a store writing to path. secret must not be empty.
func NewFileStore(path string, secret []byte) (*FileStore, error) {
	if len(secret) == 0 {
		return nil, errors.New("session: empty file secret")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(sessionKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("session: derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: path, aead: aead}, nil
}

// Path returns the file location.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load() (presenter.Session, error) {
	blob, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return presenter.Session{}, ErrNoSession
	}
	if err != nil {
		return presenter.Session{}, fmt.Errorf("session: read %s: %w", f.path, err)
	}
	ns := f.aead.NonceSize()
	if len(blob) < ns {
		return presenter.Session{}, fmt.Errorf("session: %s: file too short", f.path)
	}
	plain, err := f.aead.Open(nil, blob[:ns], blob[ns:], []byte(f.path))
	if err != nil {
		return presenter.Session{}, fmt.Errorf("session: open %s: %w", f.path, err)
	}
	var s presenter.Session
	if err := json.Unmarshal(plain, &s); err != nil {
		return presenter.Session{}, fmt.Errorf("session: decode %s: %w", f.path, err)
	}
	return s, nil
}

func (f *FileStore) Save(s presenter.Session) error {
	plain, err := json.Marshal(s)
	if err != nil {
		return err
	}
	nonce := make([]byte, f.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}
	blob := f.aead.Seal(nonce, nonce, plain, []byte(f.path))

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o600); err != nil {
		return fmt.Errorf("session: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: %w", err)
	}
	return nil
}
