package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	r := NewFileRepository(path)

	all, err := r.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll on missing file: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("GetAll on missing file = %v, want empty", all)
	}

	if err := r.PutAll(ctx, map[string]string{"sessionToken": "tok", "username": "Ada Lovelace"}); err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}

	// A second repository over the same file sees the persisted state.
	other := NewFileRepository(path)
	v, ok, err := other.Get(ctx, "username")
	if err != nil || !ok || v != "Ada Lovelace" {
		t.Errorf("Get username = %q, %v, %v", v, ok, err)
	}

	if err := r.Delete(ctx, "sessionToken"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := other.Get(ctx, "sessionToken"); ok {
		t.Error("sessionToken should be deleted")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the session file", len(entries))
	}
}

func TestFileRepository_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	r := NewFileRepository(path)
	if _, err := r.GetAll(context.Background()); err == nil {
		t.Fatal("GetAll should fail on corrupt file")
	}
	if err := r.PutAll(context.Background(), map[string]string{"a": "b"}); err == nil {
		t.Fatal("PutAll should fail on corrupt file")
	}
}
