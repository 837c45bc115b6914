package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenSource supplies the bearer credential for each request. An empty
// token means the request is sent without an Authorization header.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a fixed credential.
type StaticToken string

func (t StaticToken) Token() (string, error) { return string(t), nil }

// FileTokenStore keeps the credential in a file, the on-disk counterpart of
// the browser's local storage. The file is re-read when it changes on disk.
type FileTokenStore struct {
	path string

	mu      sync.Mutex
	cached  string
	modTime int64
}

// NewFileTokenStore returns a store rooted at path. The file need not exist.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.cached, s.modTime = "", 0
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("stat token file: %w", err)
	}
	if info.ModTime().UnixNano() == s.modTime {
		return s.cached, nil
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	s.cached = strings.TrimSpace(string(b))
	s.modTime = info.ModTime().UnixNano()
	return s.cached, nil
}

// Save writes token with owner-only permissions.
func (s *FileTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	s.cached, s.modTime = "", 0
	return nil
}

// Clear removes the stored credential.
func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached, s.modTime = "", 0
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
