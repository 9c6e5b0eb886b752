package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestCurrentSessionState(t *testing.T) {
	t.Run("load without state file returns nil", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		got, err := LoadCurrentSessionID()
		if err != nil {
			t.Fatalf("LoadCurrentSessionID() = %v", err)
		}
		if got != nil {
			t.Errorf("got %v, want nil", got)
		}
	})

	t.Run("save then load round trips", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		id := uuid.New()

		if err := SaveCurrentSessionID(id); err != nil {
			t.Fatalf("SaveCurrentSessionID() = %v", err)
		}

		got, err := LoadCurrentSessionID()
		if err != nil {
			t.Fatalf("LoadCurrentSessionID() = %v", err)
		}
		if got == nil || *got != id {
			t.Errorf("got %v, want %v", got, id)
		}
	})

	t.Run("save overwrites previous id", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		first, second := uuid.New(), uuid.New()

		if err := SaveCurrentSessionID(first); err != nil {
			t.Fatalf("SaveCurrentSessionID() = %v", err)
		}
		if err := SaveCurrentSessionID(second); err != nil {
			t.Fatalf("SaveCurrentSessionID() = %v", err)
		}

		got, err := LoadCurrentSessionID()
		if err != nil {
			t.Fatalf("LoadCurrentSessionID() = %v", err)
		}
		if got == nil || *got != second {
			t.Errorf("got %v, want %v", got, second)
		}
	})

	t.Run("clear removes state", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		if err := SaveCurrentSessionID(uuid.New()); err != nil {
			t.Fatalf("SaveCurrentSessionID() = %v", err)
		}
		if err := ClearCurrentSessionID(); err != nil {
			t.Fatalf("ClearCurrentSessionID() = %v", err)
		}

		got, err := LoadCurrentSessionID()
		if err != nil {
			t.Fatalf("LoadCurrentSessionID() = %v", err)
		}
		if got != nil {
			t.Errorf("got %v, want nil after clear", got)
		}
	})

	t.Run("clear without state file is idempotent", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		if err := ClearCurrentSessionID(); err != nil {
			t.Fatalf("ClearCurrentSessionID() = %v", err)
		}
	})

	t.Run("corrupt state file reports error", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		dir := filepath.Join(home, stateDir)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, stateFile), []byte("not-a-uuid"), 0o600); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadCurrentSessionID(); err == nil {
			t.Fatal("expected error for corrupt state file")
		}
	})

	t.Run("empty state file returns nil", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		dir := filepath.Join(home, stateDir)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, stateFile), []byte("\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		got, err := LoadCurrentSessionID()
		if err != nil {
			t.Fatalf("LoadCurrentSessionID() = %v", err)
		}
		if got != nil {
			t.Errorf("got %v, want nil for empty file", got)
		}
	})
}
