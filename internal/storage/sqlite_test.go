package storage

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nspond/curate/internal/identifier"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRebuildAndFind(t *testing.T) {
	db := openTestDB(t)

	records := []identifier.Record{
		{PMID: "123", PMCID: "PMC456", DOI: "10.1/x"},
		{PMID: "789"},
		{DOI: "10.1/x"},
		{},
	}
	count, err := db.Rebuild(records)
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Rebuild() = %d, want 3 (empty record skipped)", count)
	}

	tests := []struct {
		name string
		id   identifier.Identifier
		want []identifier.Record
	}{
		{
			"by pmid",
			identifier.Identifier{Kind: identifier.KindPMID, Value: "123"},
			[]identifier.Record{{PMID: "123", PMCID: "PMC456", DOI: "10.1/x"}},
		},
		{
			"by pmcid",
			identifier.Identifier{Kind: identifier.KindPMCID, Value: "PMC456"},
			[]identifier.Record{{PMID: "123", PMCID: "PMC456", DOI: "10.1/x"}},
		},
		{
			"by doi matches multiple in insertion order",
			identifier.Identifier{Kind: identifier.KindDOI, Value: "10.1/x"},
			[]identifier.Record{
				{PMID: "123", PMCID: "PMC456", DOI: "10.1/x"},
				{DOI: "10.1/x"},
			},
		},
		{
			"no match",
			identifier.Identifier{Kind: identifier.KindPMID, Value: "999"},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.FindByIdentifier(tt.id)
			if err != nil {
				t.Fatalf("FindByIdentifier() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindByIdentifier() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRebuild_ReplacesPrevious(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.Rebuild([]identifier.Record{{PMID: "1"}, {PMID: "2"}}); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if _, err := db.Rebuild([]identifier.Record{{PMID: "3"}}); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	count, err := db.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1 after rebuild", count)
	}
	old, err := db.FindByIdentifier(identifier.Identifier{Kind: identifier.KindPMID, Value: "1"})
	if err != nil {
		t.Fatalf("FindByIdentifier() error = %v", err)
	}
	if len(old) != 0 {
		t.Errorf("stale record survived rebuild: %+v", old)
	}
}

func TestRebuildFromJSONL(t *testing.T) {
	db := openTestDB(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "records.jsonl")
	records := []identifier.Record{
		{PMID: "123", DOI: "10.1/x"},
		{PMCID: "PMC9"},
	}
	if err := WriteRecords(path, records); err != nil {
		t.Fatalf("WriteRecords() error = %v", err)
	}

	count, err := db.RebuildFromJSONL([]string{path})
	if err != nil {
		t.Fatalf("RebuildFromJSONL() error = %v", err)
	}
	if count != 2 {
		t.Errorf("RebuildFromJSONL() = %d, want 2", count)
	}

	got, err := db.FindByIdentifier(identifier.Identifier{Kind: identifier.KindPMCID, Value: "PMC9"})
	if err != nil {
		t.Fatalf("FindByIdentifier() error = %v", err)
	}
	if len(got) != 1 || got[0].PMCID != "PMC9" {
		t.Errorf("FindByIdentifier() = %+v, want the PMC9 record", got)
	}
}

func TestFindByIdentifier_UnsupportedKind(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.FindByIdentifier(identifier.Identifier{Kind: "issn", Value: "1234-5678"}); err == nil {
		t.Error("FindByIdentifier() expected error for unsupported kind")
	}
}
