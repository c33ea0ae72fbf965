package resolve

import (
	"testing"

	"github.com/nspond/curate/internal/identifier"
)

func TestStateEnsure_Dedupes(t *testing.T) {
	st := newState()
	a := st.ensure(identifier.KindPMID, "123")
	b := st.ensure(identifier.KindPMID, "123")
	if a != b {
		t.Errorf("ensure() returned different slots %d and %d for the same pair", a, b)
	}
	if len(st.live()) != 1 {
		t.Errorf("live() = %d records, want 1", len(st.live()))
	}
}

func TestStateLink_AttachOverwrites(t *testing.T) {
	st := newState()
	rec := st.ensure(identifier.KindPMID, "123")
	st.link(rec, identifier.KindDOI, "10.1/a")
	// A later attach of an unseen value replaces the field outright.
	st.link(rec, identifier.KindDOI, "10.1/b")

	live := st.live()
	if len(live) != 1 {
		t.Fatalf("live() = %d records, want 1", len(live))
	}
	if live[0].DOI != "10.1/b" {
		t.Errorf("DOI = %q, want 10.1/b", live[0].DOI)
	}
	// Both values still index the same record.
	if st.find(st.ensure(identifier.KindDOI, "10.1/a")) != st.find(rec) {
		t.Error("earlier DOI no longer indexes the record")
	}
}

func TestStateLink_MergePrefersExisting(t *testing.T) {
	st := newState()
	a := st.ensure(identifier.KindPMID, "123")
	st.link(a, identifier.KindDOI, "10.1/a")

	b := st.ensure(identifier.KindPMCID, "PMC9")
	st.link(b, identifier.KindDOI, "10.1/b")

	// Linking a's PMID into b collapses the two records. The target is
	// the record already indexed under the pair, so a's DOI survives.
	survivor := st.link(b, identifier.KindPMID, "123")
	if got := st.find(a); got != survivor {
		t.Errorf("find(a) = %d, want survivor %d", got, survivor)
	}

	live := st.live()
	if len(live) != 1 {
		t.Fatalf("live() = %d records, want 1", len(live))
	}
	want := identifier.Record{PMID: "123", PMCID: "PMC9", DOI: "10.1/a"}
	if live[0] != want {
		t.Errorf("merged record = %+v, want %+v", live[0], want)
	}

	// Every field of the survivor is re-indexed.
	for _, kind := range identifier.Kinds {
		v := live[0].Get(kind)
		if v == "" {
			continue
		}
		if st.find(st.ensure(kind, v)) != survivor {
			t.Errorf("%s %q does not index the survivor", kind, v)
		}
	}
}

func TestStateLive_CreationOrder(t *testing.T) {
	st := newState()
	st.ensure(identifier.KindPMID, "2")
	st.ensure(identifier.KindPMID, "1")
	st.ensure(identifier.KindDOI, "10.1/z")

	live := st.live()
	if len(live) != 3 {
		t.Fatalf("live() = %d records, want 3", len(live))
	}
	if live[0].PMID != "2" || live[1].PMID != "1" || live[2].DOI != "10.1/z" {
		t.Errorf("live() not in creation order: %+v", live)
	}
}
