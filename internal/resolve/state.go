package resolve

import "github.com/nspond/curate/internal/identifier"

// indexKey identifies one (kind, canonical value) pair.
type indexKey struct {
	kind  identifier.Kind
	value string
}

// state is the union-find record index owned by a single Resolve call.
// Records live in a dense arena in creation order; merging redirects the
// absorbed slot's parent pointer instead of removing it, so iteration
// over the arena is always safe and creation order is preserved.
type state struct {
	arena  []identifier.Record
	parent []int
	slot   map[indexKey]int
}

func newState() *state {
	return &state{slot: make(map[indexKey]int)}
}

// find follows parent pointers to the live slot, compressing the path.
func (s *state) find(i int) int {
	for s.parent[i] != i {
		s.parent[i] = s.parent[s.parent[i]]
		i = s.parent[i]
	}
	return i
}

// ensure returns the slot of the record holding (kind, value), creating
// a fresh record if the pair has not been seen. value must be canonical.
func (s *state) ensure(kind identifier.Kind, value string) int {
	key := indexKey{kind, value}
	if idx, ok := s.slot[key]; ok {
		return s.find(idx)
	}
	idx := len(s.arena)
	var rec identifier.Record
	rec.Set(kind, value)
	s.arena = append(s.arena, rec)
	s.parent = append(s.parent, idx)
	s.slot[key] = idx
	return idx
}

// link attaches (kind, value) to the record at slot rec. If the pair is
// already indexed to a different record, the two records are merged and
// the surviving slot is returned. The value is written into the record's
// field unconditionally; only record-to-record merges prefer existing
// fields. value must be canonical.
func (s *state) link(rec int, kind identifier.Kind, value string) int {
	rec = s.find(rec)
	key := indexKey{kind, value}

	existing, ok := s.slot[key]
	if !ok {
		s.arena[rec].Set(kind, value)
		s.slot[key] = rec
		return rec
	}

	target := s.find(existing)
	if target == rec {
		return rec
	}

	merged := s.merge(target, rec)
	s.arena[merged].Set(kind, value)
	s.slot[key] = merged
	return merged
}

// merge absorbs other into target. Fields already set on target are
// never overwritten; every identifier held by the survivor is re-indexed
// to it.
func (s *state) merge(target, other int) int {
	s.parent[other] = target
	for _, kind := range identifier.Kinds {
		if v := s.arena[other].Get(kind); v != "" && s.arena[target].Get(kind) == "" {
			s.arena[target].Set(kind, v)
		}
	}
	for _, kind := range identifier.Kinds {
		if v := s.arena[target].Get(kind); v != "" {
			s.slot[indexKey{kind, v}] = target
		}
	}
	return target
}

// live returns copies of the surviving records in creation order.
func (s *state) live() []identifier.Record {
	records := make([]identifier.Record, 0, len(s.arena))
	for i := range s.arena {
		if s.find(i) == i {
			records = append(records, s.arena[i])
		}
	}
	return records
}

// values collects the distinct non-empty values of the given kind across
// all live records.
func (s *state) values(kind identifier.Kind) map[string]bool {
	seen := make(map[string]bool)
	for i := range s.arena {
		if s.find(i) != i {
			continue
		}
		if v := s.arena[i].Get(kind); v != "" {
			seen[v] = true
		}
	}
	return seen
}
