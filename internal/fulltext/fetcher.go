// Package fulltext retrieves full-text documents and bibliographic
// metadata for resolved identifier records, combining the pubget CLI
// with HTML scraping and the metadata gateways.
package fulltext

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nspond/curate/internal/entrez"
	"github.com/nspond/curate/internal/identifier"
	"github.com/nspond/curate/internal/s2"
	"github.com/nspond/curate/internal/storage"
)

// Text source names recorded in Result.SourcesUsed.
const (
	TextSourcePubGet  = "pubget"
	TextSourceScraper = "scrape"
)

// PMCText fetches plain text by PMCID (the pubget wrapper).
type PMCText interface {
	FetchText(ctx context.Context, pmcid string) (string, error)
}

// WebText fetches plain text from article pages.
type WebText interface {
	FetchText(ctx context.Context, pmcid string) (string, error)
	FetchTextByPMID(ctx context.Context, pmid string) (string, error)
}

// GraphMetadata looks up paper metadata by PMID or DOI.
type GraphMetadata interface {
	FetchMetadata(ctx context.Context, id string) (*s2.Metadata, error)
}

// SummaryMetadata looks up article metadata by PMID.
type SummaryMetadata interface {
	FetchMetadata(ctx context.Context, pmid string) (*entrez.Metadata, error)
}

// Metadata is the consolidated bibliographic information attached to a
// fetched record.
type Metadata struct {
	Title    string   `json:"title"`
	Abstract string   `json:"abstract"`
	Authors  []string `json:"authors"`
	Journal  string   `json:"journal"`
	Year     int      `json:"year"`
	Source   string   `json:"source"`
}

// Record is one record with its retrieved text and metadata.
type Record struct {
	PMID       string    `json:"pmid"`
	PMCID      string    `json:"pmcid"`
	DOI        string    `json:"doi"`
	Text       string    `json:"text"`
	TextSource string    `json:"text_source"`
	Metadata   *Metadata `json:"metadata"`
}

// Result is the outcome of one full-text batch.
type Result struct {
	Records         []Record
	Errors          []string
	SourcesUsed     map[string]bool
	MetadataSources map[string]bool
	StartedAt       time.Time
}

// SuccessCount returns the number of records with text.
func (r Result) SuccessCount() int {
	count := 0
	for _, rec := range r.Records {
		if rec.Text != "" {
			count++
		}
	}
	return count
}

// Fetcher coordinates full-text and metadata retrieval. All clients are
// externally owned.
type Fetcher struct {
	pubget  PMCText
	scraper WebText
	graph   GraphMetadata
	summary SummaryMetadata
	now     func() time.Time
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetcherClock sets the clock used to stamp results.
func WithFetcherClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) {
		f.now = now
	}
}

// NewFetcher creates a full-text fetcher over the given clients.
func NewFetcher(pubget PMCText, scraper WebText, graph GraphMetadata, summary SummaryMetadata, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		pubget:  pubget,
		scraper: scraper,
		graph:   graph,
		summary: summary,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves text and metadata for every record. Per-record
// failures are collected as errors; the batch always completes.
func (f *Fetcher) Fetch(ctx context.Context, records []identifier.Record) Result {
	result := Result{
		SourcesUsed:     make(map[string]bool),
		MetadataSources: make(map[string]bool),
		StartedAt:       f.now().UTC(),
	}

	for _, rec := range records {
		text, source := f.fetchText(ctx, rec, &result)

		var meta *Metadata
		if text != "" {
			meta = f.fetchMetadata(ctx, rec, &result)
		}

		result.Records = append(result.Records, Record{
			PMID:       rec.PMID,
			PMCID:      rec.PMCID,
			DOI:        rec.DOI,
			Text:       text,
			TextSource: source,
			Metadata:   meta,
		})
		if source != "" {
			result.SourcesUsed[source] = true
		}
	}

	return result
}

// fetchText tries pubget by PMCID, then the scraper by PMCID, then the
// scraper by PMID.
func (f *Fetcher) fetchText(ctx context.Context, rec identifier.Record, result *Result) (string, string) {
	if rec.PMCID != "" {
		text, err := f.pubget.FetchText(ctx, rec.PMCID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("pubget failed for %s: %v", rec.PMCID, err))
		} else if text != "" {
			return text, TextSourcePubGet
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("pubget returned no text for %s", rec.PMCID))
		}

		text, err = f.scraper.FetchText(ctx, rec.PMCID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("scrape failed for %s: %v", rec.PMCID, err))
		} else if text != "" {
			return text, TextSourceScraper
		}
	}

	if rec.PMID != "" {
		text, err := f.scraper.FetchTextByPMID(ctx, rec.PMID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("scrape failed for PMID %s: %v", rec.PMID, err))
			return "", ""
		}
		if text != "" {
			return text, TextSourceScraper
		}
		result.Errors = append(result.Errors, fmt.Sprintf("no text found for PMID %s", rec.PMID))
	}

	return "", ""
}

// fetchMetadata tries the graph gateway with the record's PMID then
// DOI, falling back to the summary gateway. Metadata failures are
// silent: text without metadata is still a success.
func (f *Fetcher) fetchMetadata(ctx context.Context, rec identifier.Record, result *Result) *Metadata {
	for _, id := range []string{rec.PMID, rec.DOI} {
		if id == "" {
			continue
		}
		meta, err := f.graph.FetchMetadata(ctx, id)
		if err != nil || meta == nil {
			continue
		}
		result.MetadataSources["semantic-scholar"] = true
		return &Metadata{
			Title:    meta.Title,
			Abstract: meta.Abstract,
			Authors:  meta.Authors,
			Journal:  firstNonEmpty(meta.Journal, meta.Venue),
			Year:     meta.Year,
			Source:   "semantic-scholar",
		}
	}

	if rec.PMID == "" {
		return nil
	}
	meta, err := f.summary.FetchMetadata(ctx, rec.PMID)
	if err != nil || meta == nil {
		return nil
	}
	result.MetadataSources["entrez"] = true
	return &Metadata{
		Title:    meta.Title,
		Abstract: meta.Abstract,
		Authors:  meta.Authors,
		Journal:  meta.Journal,
		Year:     parseYear(meta.Year),
		Source:   "entrez",
	}
}

// LoadRecords reads and deduplicates identifier records from JSONL
// files in lexicographic path order. Line-level problems are returned
// as error strings.
func LoadRecords(paths []string) ([]identifier.Record, []string, error) {
	ordered := make([]string, len(paths))
	copy(ordered, paths)
	sort.Slice(ordered, func(i, j int) bool {
		return filepath.ToSlash(ordered[i]) < filepath.ToSlash(ordered[j])
	})

	var records []identifier.Record
	var errors []string
	seen := make(map[identifier.Record]bool)

	for _, path := range ordered {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", path, err)
		}

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
			var rec identifier.Record
			if err := json.Unmarshal(line, &rec); err != nil {
				errors = append(errors, fmt.Sprintf("%s:%d: invalid JSON (%v)", path, lineNum, err))
				continue
			}
			if rec.IsEmpty() {
				errors = append(errors, fmt.Sprintf("%s:%d: record missing identifiers", path, lineNum))
				continue
			}
			if !seen[rec] {
				seen[rec] = true
				records = append(records, rec)
			}
		}
		scanErr := scanner.Err()
		f.Close()
		if scanErr != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", path, scanErr)
		}
	}

	return records, errors, nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9_-]+`)

// RecordSlug builds a stable filename slug for a fetched record.
func RecordSlug(rec Record, index int) string {
	id := rec.PMID
	if id == "" {
		id = rec.PMCID
	}
	if id == "" {
		id = rec.DOI
	}
	if id == "" {
		id = fmt.Sprintf("record-%d", index)
	}
	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(id), "_"), "_")
	if slug == "" {
		slug = "record"
	}
	return fmt.Sprintf("%04d_%s", index, slug)
}

var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// parseYear extracts a four-digit year from a pubdate string.
func parseYear(value string) int {
	match := yearPattern.FindString(value)
	if match == "" {
		return 0
	}
	year, _ := strconv.Atoi(match)
	return year
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
