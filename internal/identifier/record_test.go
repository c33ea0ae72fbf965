package identifier

import (
	"encoding/json"
	"testing"
)

func TestRecordMarshalJSON(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   string
	}{
		{
			"all fields",
			Record{PMID: "123", PMCID: "PMC456", DOI: "10.1/x"},
			`{"pmid":"123","pmcid":"PMC456","doi":"10.1/x"}`,
		},
		{
			"missing fields are null",
			Record{PMID: "123"},
			`{"pmid":"123","pmcid":null,"doi":null}`,
		},
		{
			"empty record",
			Record{},
			`{"pmid":null,"pmcid":null,"doi":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.record)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal() = %s, want %s", data, tt.want)
			}
		})
	}
}

func TestRecordUnmarshalJSON(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`{"pmid":"123","pmcid":null,"doi":"10.1/x"}`), &rec); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := Record{PMID: "123", DOI: "10.1/x"}
	if rec != want {
		t.Errorf("Unmarshal() = %+v, want %+v", rec, want)
	}
}

func TestRecordGetSet(t *testing.T) {
	var rec Record
	for _, kind := range Kinds {
		if got := rec.Get(kind); got != "" {
			t.Errorf("Get(%v) on empty record = %q, want empty", kind, got)
		}
	}
	rec.Set(KindPMCID, "PMC99")
	if rec.Get(KindPMCID) != "PMC99" {
		t.Errorf("Get(pmcid) = %q after Set, want PMC99", rec.Get(KindPMCID))
	}
	if rec.IsEmpty() {
		t.Error("IsEmpty() = true after Set")
	}
}
