package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if err := s1.SetValue("projects", `[]`); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}

	got, err := s2.GetValue("projects")
	if err != nil {
		t.Fatalf("GetValue after reopen: %v", err)
	}
	if got != `[]` {
		t.Errorf("GetValue = %q, want %q", got, `[]`)
	}
}

func TestGetValue_Missing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetValue("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSetValue_Upsert(t *testing.T) {
	s := openTestStore(t)

	if err := s.SetValue("aboutText", `"first"`); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if err := s.SetValue("aboutText", `"second"`); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	got, err := s.GetValue("aboutText")
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if got != `"second"` {
		t.Errorf("GetValue = %q, want %q", got, `"second"`)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM local_kv").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("row count = %d, want 1", count)
	}
}

func TestDeleteValue(t *testing.T) {
	s := openTestStore(t)

	if err := s.SetValue("theme", `"dark"`); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if err := s.DeleteValue("theme"); err != nil {
		t.Fatalf("DeleteValue: %v", err)
	}
	if _, err := s.GetValue("theme"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	// Missing key is fine.
	if err := s.DeleteValue("theme"); err != nil {
		t.Fatalf("DeleteValue on missing key: %v", err)
	}
}

func TestSyncFailures_NewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		f := SyncFailure{
			ID:        fmt.Sprintf("f-%d", i),
			Entity:    "project",
			Op:        "update",
			TargetID:  fmt.Sprintf("p-%d", i),
			Error:     "backend unavailable",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.SaveSyncFailure(f); err != nil {
			t.Fatalf("SaveSyncFailure: %v", err)
		}
	}

	got, err := s.ListSyncFailures(10)
	if err != nil {
		t.Fatalf("ListSyncFailures: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].ID != "f-2" || got[2].ID != "f-0" {
		t.Errorf("order = %s,%s,%s; want f-2,f-1,f-0", got[0].ID, got[1].ID, got[2].ID)
	}
	if !got[0].CreatedAt.Equal(base.Add(2 * time.Second)) {
		t.Errorf("CreatedAt = %v", got[0].CreatedAt)
	}

	limited, err := s.ListSyncFailures(1)
	if err != nil {
		t.Fatalf("ListSyncFailures: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited len = %d, want 1", len(limited))
	}
}

func TestClearSyncFailures(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 2; i++ {
		if err := s.SaveSyncFailure(SyncFailure{ID: fmt.Sprintf("f-%d", i), Entity: "profile", Op: "save", Error: "x"}); err != nil {
			t.Fatalf("SaveSyncFailure: %v", err)
		}
	}

	n, err := s.ClearSyncFailures()
	if err != nil {
		t.Fatalf("ClearSyncFailures: %v", err)
	}
	if n != 2 {
		t.Errorf("cleared = %d, want 2", n)
	}

	got, err := s.ListSyncFailures(10)
	if err != nil {
		t.Fatalf("ListSyncFailures: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty log, got %d", len(got))
	}
}
