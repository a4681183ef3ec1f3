package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirExists(t *testing.T) {
	tmp := t.TempDir()
	if !DirExists(tmp) {
		t.Errorf("DirExists(%q) = false, want true", tmp)
	}
	file := filepath.Join(tmp, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if DirExists(file) {
		t.Errorf("DirExists(file) = true, want false")
	}
	if DirExists(filepath.Join(tmp, "missing")) {
		t.Errorf("DirExists(missing) = true, want false")
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if !DirExists(dir) {
		t.Errorf("directory not created")
	}
}

func TestIsHidden(t *testing.T) {
	tests := map[string]bool{
		".git":     true,
		".env":     true,
		"src":      false,
		".":        false,
		"..":       false,
		"a.hidden": false,
	}
	for name, want := range tests {
		if got := IsHidden(name); got != want {
			t.Errorf("IsHidden(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestReadTextFile(t *testing.T) {
	tmp := t.TempDir()
	small := filepath.Join(tmp, "small.txt")
	if err := os.WriteFile(small, []byte("hello"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	content, ok, err := ReadTextFile(small, 100)
	if err != nil || !ok || content != "hello" {
		t.Errorf("ReadTextFile(small) = %q, %v, %v", content, ok, err)
	}

	_, ok, err = ReadTextFile(small, 2)
	if err != nil || ok {
		t.Errorf("ReadTextFile over limit = %v, %v; want skipped", ok, err)
	}

	bin := filepath.Join(tmp, "blob.bin")
	if err := os.WriteFile(bin, []byte{'a', 0, 'b'}, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, ok, err = ReadTextFile(bin, 100)
	if err != nil || ok {
		t.Errorf("ReadTextFile(binary) = %v, %v; want skipped", ok, err)
	}

	_, _, err = ReadTextFile(filepath.Join(tmp, "nope"), 100)
	if err == nil {
		t.Errorf("expected error for missing file")
	}
}
