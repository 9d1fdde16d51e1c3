package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "fleetdeck"))

	if _, ok := s.Get("auth_token"); ok {
		t.Error("Get() on empty store = ok, want missing")
	}
	if err := s.Set("auth_token", "tok-123"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	got, ok := s.Get("auth_token")
	if !ok || got != "tok-123" {
		t.Errorf("Get() = %q, %v, want %q, true", got, ok, "tok-123")
	}
	if err := s.Delete("auth_token"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, ok := s.Get("auth_token"); ok {
		t.Error("Get() after Delete() = ok, want missing")
	}
}

func TestFileStoreDeleteMissingKey(t *testing.T) {
	s := NewFileStore(t.TempDir())
	if err := s.Delete("never_written"); err != nil {
		t.Errorf("Delete() on missing key error: %v, want nil", err)
	}
}

func TestFileStorePermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fleetdeck")
	s := NewFileStore(dir)
	if err := s.Set("auth_token", "secret"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "auth_token"))
	if err != nil {
		t.Fatalf("Stat() error: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("token file mode = %o, want 0600", perm)
	}
}

func TestMemStoreRoundTrip(t *testing.T) {
	s := NewMemStore()
	s.Set("user_data", `{"id":"x"}`) //nolint:errcheck
	got, ok := s.Get("user_data")
	if !ok || got != `{"id":"x"}` {
		t.Errorf("Get() = %q, %v, want the stored value", got, ok)
	}
	s.Delete("user_data") //nolint:errcheck
	if _, ok := s.Get("user_data"); ok {
		t.Error("Get() after Delete() = ok, want missing")
	}
}
