package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStore_SetTokenRemembered(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, true)

	if err := s.SetToken("abc123"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}
	if got := s.Token(); got != "abc123" {
		t.Errorf("Token() = %q, want %q", got, "abc123")
	}

	data, err := os.ReadFile(filepath.Join(dir, "token"))
	if err != nil {
		t.Fatalf("token file not written: %v", err)
	}
	if string(data) != "abc123" {
		t.Errorf("token file = %q, want %q", data, "abc123")
	}

	info, err := os.Stat(filepath.Join(dir, "token"))
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("token file mode = %o, want 0600", perm)
	}
}

func TestStore_SetTokenSessionOnly(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, false)

	if err := s.SetToken("ephemeral"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}
	if !s.Authenticated() {
		t.Error("expected Authenticated() to be true")
	}
	if _, err := os.Stat(filepath.Join(dir, "token")); !os.IsNotExist(err) {
		t.Error("session-only token should not be written to disk")
	}
}

func TestStore_LoadsRememberedToken(t *testing.T) {
	dir := t.TempDir()
	first := NewStore(dir, true)
	if err := first.SetToken("persisted"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}

	// A fresh process picks up the remembered token even when the new
	// store is not itself in remember mode.
	second := NewStore(dir, false)
	if got := second.Token(); got != "persisted" {
		t.Errorf("Token() = %q, want %q", got, "persisted")
	}
}

func TestStore_Clear(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, true)
	if err := s.SetToken("abc"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if s.Authenticated() {
		t.Error("expected Authenticated() to be false after Clear")
	}
	if _, err := os.Stat(filepath.Join(dir, "token")); !os.IsNotExist(err) {
		t.Error("token file should be removed after Clear")
	}

	// Clearing an empty store is not an error.
	if err := s.Clear(); err != nil {
		t.Errorf("Clear on empty store failed: %v", err)
	}
}

func TestStore_AnonymousByDefault(t *testing.T) {
	s := NewStore(t.TempDir(), false)
	if s.Authenticated() {
		t.Error("new store should be anonymous")
	}
	if got := s.Token(); got != "" {
		t.Errorf("Token() = %q, want empty", got)
	}
}
