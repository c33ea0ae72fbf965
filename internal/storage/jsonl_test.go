package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nspond/curate/internal/identifier"
)

func TestWriteReadRecords_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	records := []identifier.Record{
		{PMID: "123", PMCID: "PMC456", DOI: "10.1/x"},
		{PMID: "789"},
		{DOI: "10.2/y"},
	}

	if err := WriteRecords(path, records); err != nil {
		t.Fatalf("WriteRecords() error = %v", err)
	}
	got, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("ReadRecords() error = %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Errorf("round trip = %+v, want %+v", got, records)
	}
}

func TestWriteRecords_NullForAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	if err := WriteRecords(path, []identifier.Record{{PMID: "123"}}); err != nil {
		t.Fatalf("WriteRecords() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"pmid":"123","pmcid":null,"doi":null}` + "\n"
	if string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}
}

func TestReadRecords_MissingFile(t *testing.T) {
	records, err := ReadRecords(filepath.Join(t.TempDir(), "absent.jsonl"))
	if err != nil {
		t.Fatalf("ReadRecords() error = %v", err)
	}
	if records != nil {
		t.Errorf("ReadRecords() = %+v, want nil", records)
	}
}

func TestReadRecords_SkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	content := `{"pmid":"1","pmcid":null,"doi":null}` + "\n\n" + `{"pmid":"2","pmcid":null,"doi":null}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	records, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("ReadRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("ReadRecords() = %d records, want 2", len(records))
	}
}

func TestReadRecords_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	if err := os.WriteFile(path, []byte("{broken\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := ReadRecords(path)
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Errorf("ReadRecords() error = %v, want line 1 parse error", err)
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := WriteJSON(path, map[string]any{"count": 2}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"count": 2`) {
		t.Errorf("metadata = %s, want indented JSON", data)
	}
}
