// Package merge performs offline union of partially-identified records
// from JSONL files. Records sharing any identifier are grouped with a
// union-find over canonical identifier keys; conflicts within a group
// are reported and resolved by deterministic tie-break.
package merge

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/nspond/curate/internal/identifier"
	"github.com/nspond/curate/internal/storage"
)

// Outcome is the result of merging one or more JSONL files. Records and
// InputHash are deterministic for a given logical input set regardless
// of argument order; SourceFiles is always in lexicographic path order.
type Outcome struct {
	Records     []identifier.Record
	InputHash   string
	SourceFiles []string
	Errors      []string
	StartedAt   time.Time
}

// Batch is the normalized identifier list of one input record.
type Batch []identifier.Identifier

// unionFind groups identifier keys by co-occurrence.
type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (u *unionFind) find(key string) string {
	if _, ok := u.parent[key]; !ok {
		u.parent[key] = key
	}
	if u.parent[key] != key {
		u.parent[key] = u.find(u.parent[key])
	}
	return u.parent[key]
}

func (u *unionFind) union(a, b string) {
	rootA := u.find(a)
	rootB := u.find(b)
	if rootA != rootB {
		u.parent[rootB] = rootA
	}
}

// component accumulates the distinct values seen per kind in one group.
type component map[identifier.Kind]map[string]bool

// Merge groups the batches by shared identifiers and builds one record
// per group. Conflicting values for a kind are reported as errors and
// resolved by choosing the lexicographically smallest.
func Merge(batches []Batch) ([]identifier.Record, []string) {
	uf := newUnionFind()
	byKey := make(map[string]identifier.Identifier)

	for _, batch := range batches {
		if len(batch) == 0 {
			continue
		}
		keys := make([]string, len(batch))
		for i, id := range batch {
			keys[i] = id.Key()
			if _, ok := byKey[keys[i]]; !ok {
				byKey[keys[i]] = id
			}
			uf.find(keys[i])
		}
		for _, key := range keys[1:] {
			uf.union(keys[0], key)
		}
	}

	components := make(map[string]component)
	for key, id := range byKey {
		root := uf.find(key)
		bucket, ok := components[root]
		if !ok {
			bucket = component{
				identifier.KindPMID:  {},
				identifier.KindPMCID: {},
				identifier.KindDOI:   {},
			}
			components[root] = bucket
		}
		bucket[id.Kind][id.Value] = true
	}

	var errors []string
	type sortable struct {
		key string
		rec identifier.Record
	}
	sortables := make([]sortable, 0, len(components))

	for root, values := range components {
		var rec identifier.Record
		var sortKey string
		for _, kind := range identifier.Kinds {
			entries := make([]string, 0, len(values[kind]))
			for v := range values[kind] {
				entries = append(entries, v)
			}
			if len(entries) == 0 {
				continue
			}
			sort.Strings(entries)
			if len(entries) > 1 {
				errors = append(errors, fmt.Sprintf("conflicting %s values encountered: %v", kind, entries))
			}
			chosen := entries[0]
			rec.Set(kind, chosen)
			if sortKey == "" {
				sortKey = string(kind) + ":" + chosen
			}
		}
		if sortKey == "" {
			sortKey = root
		}
		sortables = append(sortables, sortable{key: sortKey, rec: rec})
	}

	sort.Slice(sortables, func(i, j int) bool {
		return sortables[i].key < sortables[j].key
	})

	records := make([]identifier.Record, len(sortables))
	for i, s := range sortables {
		records[i] = s.rec
	}
	sort.Strings(errors)
	return records, errors
}

// MergeFiles reads identifier records from the given JSONL files,
// normalizes them, and merges them. Per-line problems (invalid JSON,
// identifier-free rows, malformed identifiers) are recorded as errors
// without aborting the merge. At least one file is required.
func MergeFiles(paths []string) (Outcome, error) {
	if len(paths) == 0 {
		return Outcome{}, fmt.Errorf("at least one JSONL file is required")
	}
	startedAt := time.Now().UTC()

	ordered := make([]string, len(paths))
	copy(ordered, paths)
	sort.Slice(ordered, func(i, j int) bool {
		return filepath.ToSlash(ordered[i]) < filepath.ToSlash(ordered[j])
	})

	var errors []string
	var batches []Batch
	for _, path := range ordered {
		fileBatches, fileErrors, err := readBatches(path)
		if err != nil {
			return Outcome{}, err
		}
		batches = append(batches, fileBatches...)
		errors = append(errors, fileErrors...)
	}

	records, mergeErrors := Merge(batches)
	errors = append(errors, mergeErrors...)

	inputHash, err := storage.HashFileContents(paths)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Records:     records,
		InputHash:   inputHash,
		SourceFiles: ordered,
		Errors:      errors,
		StartedAt:   startedAt,
	}, nil
}

// readBatches scans one JSONL file into normalized identifier batches.
// Line-level problems go into the returned error strings; only I/O
// failures abort.
func readBatches(path string) ([]Batch, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var batches []Batch
	var errors []string

	scanner := bufio.NewScanner(f)
	buf := make([]byte, storage.MaxJSONLLineCapacity)
	scanner.Buffer(buf, storage.MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var payload map[string]any
		if err := json.Unmarshal(line, &payload); err != nil {
			errors = append(errors, fmt.Sprintf("%s:%d: invalid JSON (%v)", path, lineNum, err))
			continue
		}

		var batch Batch
		sawValue := false
		for _, kind := range identifier.Kinds {
			raw, ok := payload[string(kind)]
			if !ok || raw == nil {
				continue
			}
			value, ok := raw.(string)
			if !ok || value == "" {
				continue
			}
			sawValue = true
			id, err := identifier.Normalize(value)
			if err != nil {
				errors = append(errors, fmt.Sprintf("%s:%d: %v", path, lineNum, err))
				continue
			}
			batch = append(batch, id)
		}

		if len(batch) > 0 {
			batches = append(batches, batch)
		} else if sawValue {
			errors = append(errors, fmt.Sprintf("%s:%d: record discarded: missing identifiers", path, lineNum))
		} else {
			errors = append(errors, fmt.Sprintf("%s:%d: row has no recognizable identifiers", path, lineNum))
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return batches, errors, nil
}
