package fulltext

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const (
	// articleURLFormat is the PubMed Central article page used as the
	// HTML full-text source; the verb takes a PMCID or "pmid/<pmid>".
	articleURLFormat = "https://pmc.ncbi.nlm.nih.gov/articles/%s/"

	scraperRateLimit = 1.0
	scraperTimeout   = 60 * time.Second
	scraperUserAgent = "curate/fulltext-fetcher"
)

// ErrScrapeFailed indicates an HTML full-text fetch failure.
var ErrScrapeFailed = errors.New("scrape failed")

// Scraper fetches article pages over HTTP and reduces them to plain
// text.
type Scraper struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	urlFormat  string
}

// ScraperOption configures a Scraper.
type ScraperOption func(*Scraper)

// WithScraperHTTPClient sets a custom HTTP client.
func WithScraperHTTPClient(hc *http.Client) ScraperOption {
	return func(s *Scraper) {
		s.httpClient = hc
	}
}

// WithScraperURLFormat sets a custom article URL format (for testing).
// The format must contain one %s verb for the PMCID.
func WithScraperURLFormat(format string) ScraperOption {
	return func(s *Scraper) {
		s.urlFormat = format
	}
}

// NewScraper creates an article HTML scraper.
func NewScraper(opts ...ScraperOption) *Scraper {
	s := &Scraper{
		httpClient: &http.Client{Timeout: scraperTimeout},
		limiter:    rate.NewLimiter(rate.Limit(scraperRateLimit), 1),
		urlFormat:  articleURLFormat,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchTextByPMID fetches the article page via the PMC pmid redirect
// and returns its cleaned plain text.
func (s *Scraper) FetchTextByPMID(ctx context.Context, pmid string) (string, error) {
	return s.FetchText(ctx, "pmid/"+pmid)
}

// FetchText fetches the article page for the given PMCID and returns
// its cleaned plain text. Returns an empty string for a missing
// article (404).
func (s *Scraper) FetchText(ctx context.Context, pmcid string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrScrapeFailed, err)
	}

	url := fmt.Sprintf(s.urlFormat, pmcid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrScrapeFailed, err)
	}
	req.Header.Set("User-Agent", scraperUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrScrapeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: status %d for %s", ErrScrapeFailed, resp.StatusCode, pmcid)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: parsing HTML: %v", ErrScrapeFailed, err)
	}

	return CleanDocument(doc), nil
}

// CleanDocument reduces an HTML document to plain text: scripts,
// styles, and navigation chrome are dropped, and blank lines collapsed.
func CleanDocument(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer").Remove()

	raw := doc.Find("body").Text()
	if raw == "" {
		raw = doc.Text()
	}

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n")
}

// CleanHTML reduces an HTML fragment to plain text.
func CleanHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}
	return CleanDocument(doc), nil
}
