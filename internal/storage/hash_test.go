package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashIdentifiers(t *testing.T) {
	hash, err := HashIdentifiers([]string{"pmid:123", "doi:10.1/x"})
	if err != nil {
		t.Fatalf("HashIdentifiers() error = %v", err)
	}
	if len(hash) != 16 {
		t.Errorf("hash length = %d, want 16", len(hash))
	}
}

func TestHashIdentifiers_OrderIndependent(t *testing.T) {
	a, err := HashIdentifiers([]string{"pmid:123", "doi:10.1/x", "pmcid:PMC9"})
	if err != nil {
		t.Fatalf("HashIdentifiers() error = %v", err)
	}
	b, err := HashIdentifiers([]string{"pmcid:PMC9", "pmid:123", "doi:10.1/x"})
	if err != nil {
		t.Fatalf("HashIdentifiers() error = %v", err)
	}
	if a != b {
		t.Errorf("hash depends on order: %s vs %s", a, b)
	}
}

func TestHashIdentifiers_IgnoresWhitespace(t *testing.T) {
	a, _ := HashIdentifiers([]string{"pmid:123"})
	b, _ := HashIdentifiers([]string{"  pmid:123  ", "", "   "})
	if a != b {
		t.Errorf("whitespace changed the hash: %s vs %s", a, b)
	}
}

func TestHashIdentifiers_Empty(t *testing.T) {
	if _, err := HashIdentifiers(nil); err == nil {
		t.Error("HashIdentifiers(nil) expected error")
	}
	if _, err := HashIdentifiers([]string{"  ", ""}); err == nil {
		t.Error("HashIdentifiers(blank) expected error")
	}
}

func TestHashFileContents(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(a, []byte("alpha"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("beta"), 0644); err != nil {
		t.Fatal(err)
	}

	forward, err := HashFileContents([]string{a, b})
	if err != nil {
		t.Fatalf("HashFileContents() error = %v", err)
	}
	backward, err := HashFileContents([]string{b, a})
	if err != nil {
		t.Fatalf("HashFileContents() error = %v", err)
	}
	if forward != backward {
		t.Errorf("hash depends on path order: %s vs %s", forward, backward)
	}

	// Content changes change the hash.
	if err := os.WriteFile(b, []byte("gamma"), 0644); err != nil {
		t.Fatal(err)
	}
	changed, err := HashFileContents([]string{a, b})
	if err != nil {
		t.Fatalf("HashFileContents() error = %v", err)
	}
	if changed == forward {
		t.Error("hash unchanged after file content changed")
	}

	// Missing files are skipped, not fatal.
	if _, err := HashFileContents([]string{a, filepath.Join(dir, "missing.txt")}); err != nil {
		t.Errorf("HashFileContents() with missing file error = %v", err)
	}
}

func TestBuildHashedOutputDir(t *testing.T) {
	base := t.TempDir()
	dir, err := BuildHashedOutputDir(base, []string{"pmid:123"})
	if err != nil {
		t.Fatalf("BuildHashedOutputDir() error = %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("output dir not created: %v", err)
	}

	// Same tokens reuse the same directory.
	again, err := BuildHashedOutputDir(base, []string{"pmid:123"})
	if err != nil {
		t.Fatalf("BuildHashedOutputDir() error = %v", err)
	}
	if again != dir {
		t.Errorf("directory changed across runs: %s vs %s", again, dir)
	}
}
