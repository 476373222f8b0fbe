package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestKey(t *testing.T) {
	a := Key("It was a dark night.")
	b := Key("It was a bright morning.")
	c := Key("It was a dark night.")

	if a != c {
		t.Errorf("same text should produce the same key: %s != %s", a, c)
	}
	if a == b {
		t.Error("different text should produce different keys")
	}
	if len(a) != 32 {
		t.Errorf("key should be 32 chars, got %d", len(a))
	}
	if len(Key("")) != 32 {
		t.Error("empty text should still produce a full key")
	}
}

func TestKeyUsesLeadingBytes(t *testing.T) {
	head := strings.Repeat("a", hashBytes)
	if Key(head+"ending one") != Key(head+"ending two") {
		t.Error("bytes past the hashed prefix should not change the key")
	}
}

func TestDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmpDir)
	if got := Dir(); got != filepath.Join(tmpDir, "limn") {
		t.Errorf("Dir() = %s", got)
	}
}

func TestStore(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	store, err := Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	key := Key("Frankenstein")

	if _, ok := store.Get(key); ok {
		t.Error("unknown key should not be found")
	}
	if store.Block(key) != 0 {
		t.Error("unknown key should report block 0")
	}

	if err := store.Save(key, Position{Block: 1234, Title: "Frankenstein"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	p, ok := store.Get(key)
	if !ok || p.Block != 1234 || p.Title != "Frankenstein" {
		t.Errorf("Get() = %+v, %v", p, ok)
	}
	if p.Saved.IsZero() {
		t.Error("Save should stamp the time")
	}

	if err := store.Clear(key); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store after clear, got %d", store.Len())
	}
}

func TestStorePersistence(t *testing.T) {
	dir := t.TempDir()
	key := Key("Moby Dick")

	store1, err := OpenDir(dir)
	if err != nil {
		t.Fatalf("OpenDir failed: %v", err)
	}
	if err := store1.Save(key, Position{Block: 5678, Source: "2701"}); err != nil {
		t.Fatal(err)
	}

	store2, err := OpenDir(dir)
	if err != nil {
		t.Fatalf("OpenDir failed: %v", err)
	}
	p, _ := store2.Get(key)
	if p.Block != 5678 || p.Source != "2701" {
		t.Errorf("persisted position = %+v", p)
	}
}

func TestStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, stateFileName), []byte("{not json"), 0644)

	store, err := OpenDir(dir)
	if err != nil {
		t.Fatalf("corrupt state should not be fatal: %v", err)
	}
	if store.Len() != 0 {
		t.Error("corrupt state should start empty")
	}
}
