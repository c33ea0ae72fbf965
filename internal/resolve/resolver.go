// Package resolve consolidates heterogeneous bibliographic identifiers
// into unified records by cross-referencing three external lookup
// services. Gateway failures are collected as diagnostics; a resolution
// run always completes with best-effort records.
package resolve

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nspond/curate/internal/identifier"
)

// Converter maps a batch of PMCIDs to related identifiers. Implemented
// by the NCBI PMC ID converter client.
type Converter interface {
	Convert(ctx context.Context, pmcids []string) (map[string]identifier.Links, error)
}

// Summarizer maps a batch of PMIDs to related identifiers via article
// summaries. Implemented by the Entrez esummary client.
type Summarizer interface {
	FetchArticleIDs(ctx context.Context, pmids []string) (map[string]identifier.Links, error)
}

// Grapher looks up one identifier in an external-ID graph. A nil result
// with nil error means the identifier is unknown to the service.
// Implemented by the Semantic Scholar client.
type Grapher interface {
	FetchExternalIDs(ctx context.Context, id string) (*identifier.Links, error)
}

// Source names recorded in Result.SourcesUsed.
const (
	SourcePMC             = "pmc"
	SourceEntrez          = "entrez"
	SourceSemanticScholar = "semantic-scholar"
)

// Result is the outcome of one resolution run. Records are in creation
// order. Errors are diagnostic: a non-empty list still accompanies
// usable, best-effort records.
type Result struct {
	Records     []identifier.Record
	SourcesUsed map[string]bool
	Errors      []string
	StartedAt   time.Time
}

// Sources returns the names of the sources that contributed data, sorted.
func (r Result) Sources() []string {
	names := make([]string, 0, len(r.SourcesUsed))
	for name := range r.SourcesUsed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolver orchestrates the three lookup passes. The gateway clients are
// externally owned: the resolver never closes them.
type Resolver struct {
	pmc    Converter
	entrez Summarizer
	graph  Grapher
	now    func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock sets the clock used to stamp results. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a Resolver over the given gateway clients.
func NewResolver(pmc Converter, entrez Summarizer, graph Grapher, opts ...Option) *Resolver {
	r := &Resolver{
		pmc:    pmc,
		entrez: entrez,
		graph:  graph,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveStrings normalizes raw identifier strings and resolves them.
// Malformed identifiers fail the whole batch before any gateway call.
func (r *Resolver) ResolveStrings(ctx context.Context, values []string) (Result, error) {
	ids, err := identifier.NormalizeAll(values)
	if err != nil {
		return Result{}, err
	}
	return r.Resolve(ctx, ids), nil
}

// Resolve runs the three lookup passes over the given identifiers and
// returns the consolidated records. Individual gateway failures never
// abort the run; they are appended to the result's error list.
func (r *Resolver) Resolve(ctx context.Context, ids []identifier.Identifier) Result {
	st := newState()
	result := Result{
		SourcesUsed: make(map[string]bool),
		StartedAt:   r.now().UTC(),
	}

	for _, id := range ids {
		st.ensure(id.Kind, id.Value)
	}

	r.convertPMCIDs(ctx, st, &result)
	r.fetchArticleIDs(ctx, st, &result)
	r.walkExternalIDs(ctx, st, &result)

	result.Records = st.live()
	return result
}

// convertPMCIDs is the PMC cross-reference pass: one batched call over
// every PMCID currently in the index.
func (r *Resolver) convertPMCIDs(ctx context.Context, st *state, result *Result) {
	pmcids := sortedKeys(st.values(identifier.KindPMCID))
	if len(pmcids) == 0 {
		return
	}

	conversions, err := r.pmc.Convert(ctx, pmcids)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return
	}
	if len(conversions) > 0 {
		result.SourcesUsed[SourcePMC] = true
	}

	for _, pmcid := range sortedKeys(conversions) {
		links := conversions[pmcid]
		rec, ok := ensureNormalized(st, identifier.KindPMCID, pmcid, result)
		if !ok {
			continue
		}
		rec = attach(st, rec, identifier.KindPMID, links.PMID, result)
		attach(st, rec, identifier.KindDOI, links.DOI, result)
	}
}

// fetchArticleIDs is the summary pass: one batched call over every PMID
// present across live records after the PMC pass.
func (r *Resolver) fetchArticleIDs(ctx context.Context, st *state, result *Result) {
	pmids := sortedKeys(st.values(identifier.KindPMID))
	if len(pmids) == 0 {
		return
	}

	summaries, err := r.entrez.FetchArticleIDs(ctx, pmids)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return
	}
	if len(summaries) > 0 {
		result.SourcesUsed[SourceEntrez] = true
	}

	for _, pmid := range sortedKeys(summaries) {
		links := summaries[pmid]
		rec, ok := ensureNormalized(st, identifier.KindPMID, pmid, result)
		if !ok {
			continue
		}
		rec = attach(st, rec, identifier.KindPMCID, links.PMCID, result)
		attach(st, rec, identifier.KindDOI, links.DOI, result)
	}
}

// walkExternalIDs is the external-ID graph pass: one call per distinct
// (kind, value) pair from the pmid and doi fields of live records, in
// sorted order. Per-pair failures skip only that pair.
func (r *Resolver) walkExternalIDs(ctx context.Context, st *state, result *Result) {
	targets := make(map[indexKey]bool)
	for _, rec := range st.live() {
		if rec.PMID != "" {
			targets[indexKey{identifier.KindPMID, rec.PMID}] = true
		}
		if rec.DOI != "" {
			targets[indexKey{identifier.KindDOI, rec.DOI}] = true
		}
	}

	ordered := make([]indexKey, 0, len(targets))
	for key := range targets {
		ordered = append(ordered, key)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].kind != ordered[j].kind {
			return ordered[i].kind < ordered[j].kind
		}
		return ordered[i].value < ordered[j].value
	})

	for _, target := range ordered {
		links, err := r.graph.FetchExternalIDs(ctx, target.value)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		if links == nil {
			continue
		}
		result.SourcesUsed[SourceSemanticScholar] = true

		rec := st.ensure(target.kind, target.value)
		rec = attach(st, rec, identifier.KindPMID, links.PMID, result)
		rec = attach(st, rec, identifier.KindPMCID, links.PMCID, result)
		attach(st, rec, identifier.KindDOI, links.DOI, result)
	}
}

// ensureNormalized canonicalizes a gateway-reported value and ensures a
// record for it. A malformed value is recorded as a diagnostic and
// skipped rather than trusted.
func ensureNormalized(st *state, kind identifier.Kind, value string, result *Result) (int, bool) {
	canonical, err := identifier.NormalizeValue(kind, value)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("skipping malformed %s %q: %v", kind, value, err))
		return 0, false
	}
	return st.ensure(kind, canonical), true
}

// attach links a gateway-reported value to the record at slot rec,
// returning the surviving slot. Empty values are ignored; malformed
// values are recorded and skipped.
func attach(st *state, rec int, kind identifier.Kind, value string, result *Result) int {
	if value == "" {
		return rec
	}
	canonical, err := identifier.NormalizeValue(kind, value)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("skipping malformed %s %q: %v", kind, value, err))
		return rec
	}
	return st.link(rec, kind, canonical)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
