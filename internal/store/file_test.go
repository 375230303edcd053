package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"trainbot/internal/domain"
)

func newTestStore(t *testing.T) (Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s, path
}

func TestFileStoreLazyCreate(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Get(ctx, 100)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.ID != 100 || rec.Name != "" || rec.Verified {
		t.Fatalf("unexpected default record: %+v", rec)
	}

	// Lazy creation persists immediately.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	var snapshot map[string]json.RawMessage
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		t.Fatalf("snapshot parse: %v", err)
	}
	if _, ok := snapshot["100"]; !ok {
		t.Fatal("snapshot missing lazily created record")
	}
}

func TestFileStoreUpdateSurvivesReload(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, 7, func(u *domain.UserRecord) {
		u.Name = "Alice"
		u.Verified = true
		u.Phone = "+994501234567"
		u.PhoneOK = true
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	rec, err := reloaded.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get after reload: %v", err)
	}
	if rec.Name != "Alice" || !rec.Verified || !rec.PhoneOK || rec.Phone != "+994501234567" {
		t.Fatalf("record not preserved: %+v", rec)
	}
}

func TestFileStoreLegacyNameMigration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	legacy := `{"42": "Bob", "43": {"id": 43, "name": "Carol", "verified": true}}`
	if err := os.WriteFile(path, []byte(legacy), 0o600); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	rec, err := s.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get legacy: %v", err)
	}
	if rec.Name != "Bob" || rec.Verified {
		t.Fatalf("legacy record not migrated: %+v", rec)
	}

	rec, err = s.Get(ctx, 43)
	if err != nil {
		t.Fatalf("Get structured: %v", err)
	}
	if rec.Name != "Carol" || !rec.Verified {
		t.Fatalf("structured record mangled: %+v", rec)
	}
}

func TestFileStorePersistenceErrorKeepsMemoryState(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	// Replace the snapshot path with a directory so the rename fails.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		t.Fatalf("remove snapshot: %v", err)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	err := s.Update(ctx, 5, func(u *domain.UserRecord) { u.Name = "Dave" })
	var perr *PersistenceError
	if err == nil {
		t.Fatal("expected persistence error")
	}
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *PersistenceError", err)
	}

	// The mutation must still be visible in memory.
	rec, _ := s.Get(ctx, 5)
	if rec.Name != "Dave" {
		t.Fatalf("in-memory state lost: %+v", rec)
	}
}

func TestFileStoreAllSorted(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, uid := range []int64{30, 10, 20} {
		if _, err := s.Get(ctx, uid); err != nil {
			t.Fatalf("Get(%d): %v", uid, err)
		}
	}
	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 3 || all[0].ID != 10 || all[1].ID != 20 || all[2].ID != 30 {
		t.Fatalf("All not sorted: %+v", all)
	}
}
