// Package auth keeps the backend access token. A login with "remember"
// persists the token to a mode-0600 file under the data directory so later
// invocations stay signed in; without it the token lives only for the
// process lifetime.
package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const tokenFile = "token"

// Store holds the current access token. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	token    string
	path     string
	remember bool
}

// NewStore creates a token store rooted at dataDir. An existing remembered
// token is loaded regardless of the remember flag, so a prior "remember me"
// login survives restarts until an explicit logout.
func NewStore(dataDir string, remember bool) *Store {
	s := &Store{
		path:     filepath.Join(dataDir, tokenFile),
		remember: remember,
	}
	if data, err := os.ReadFile(s.path); err == nil {
		s.token = strings.TrimSpace(string(data))
	}
	return s
}

// Token returns the current access token, or "" when anonymous.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is present.
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// SetToken stores the token, persisting it when the store was created with
// the remember flag.
func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	if !s.remember {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0600); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	return nil
}

// Clear forgets the token in memory and on disk. Used at logout; the file
// is removed even for session-scoped stores in case a remembered token
// lingers from an earlier login.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
