package identity

import (
	"errors"
	"strings"
	"testing"
)

func TestGetOrCreatePersists(t *testing.T) {
	f := NewFileStoreAt(t.TempDir())
	f.fingerprint = func() (string, error) { return "mesin-123", nil }

	if _, ok := f.Get(); ok {
		t.Fatal("fresh store should have no identity")
	}

	id, err := f.GetOrCreate()
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if id != "mesin-123" {
		t.Errorf("id = %q, want fingerprint", id)
	}

	// A second call reads the stored value, not the fingerprint.
	f.fingerprint = func() (string, error) { return "mesin-lain", nil }
	again, err := f.GetOrCreate()
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}
	if again != id {
		t.Errorf("identity changed across calls: %q vs %q", again, id)
	}

	stored, ok := f.Get()
	if !ok || stored != id {
		t.Errorf("Get = %q, %v", stored, ok)
	}
}

func TestFingerprintFailureFallsBackToUUID(t *testing.T) {
	f := NewFileStoreAt(t.TempDir())
	f.fingerprint = func() (string, error) { return "", errors.New("no machine id") }

	id, err := f.GetOrCreate()
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if id == "" {
		t.Fatal("fallback produced empty identity")
	}
	if strings.Count(id, "-") != 4 {
		t.Errorf("fallback should be a UUID, got %q", id)
	}
}

func TestClear(t *testing.T) {
	f := NewFileStoreAt(t.TempDir())
	f.fingerprint = func() (string, error) { return "mesin-123", nil }

	if _, err := f.GetOrCreate(); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if err := f.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := f.Get(); ok {
		t.Error("identity survived Clear")
	}
	// Clearing twice is fine.
	if err := f.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}
