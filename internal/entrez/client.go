// Package entrez provides a client for PubMed Entrez article summaries:
// cross-referenced article IDs and bibliographic metadata by PMID.
package entrez

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nspond/curate/internal/identifier"
)

const (
	// BaseURL is the Entrez esummary endpoint.
	BaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esummary.fcgi"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultTool identifies this pipeline to NCBI.
	DefaultTool = "curate"

	keylessRateLimit = 3.0
	keyedRateLimit   = 10.0
)

// Common errors returned by the client.
var (
	ErrRequestFailed   = errors.New("entrez: request failed")
	ErrBadStatus       = errors.New("entrez: error")
	ErrInvalidResponse = errors.New("entrez: invalid JSON response")
)

var pmcidPattern = regexp.MustCompile(`PMC\d+`)

// Metadata is the bibliographic summary of one article.
type Metadata struct {
	Title    string   `json:"title"`
	Abstract string   `json:"abstract"`
	Authors  []string `json:"authors"`
	Journal  string   `json:"journal"`
	Year     string   `json:"year"`
}

// Client is a rate-limited HTTP client for Entrez esummary.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	tool       string
	email      string
	apiKey     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithEmail sets the contact email sent to NCBI with requests.
func WithEmail(email string) ClientOption {
	return func(c *Client) {
		c.email = email
	}
}

// WithAPIKey sets the NCBI API key, raising the rate limit.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// NewClient creates an Entrez summary client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    BaseURL,
		tool:       DefaultTool,
	}
	for _, opt := range opts {
		opt(c)
	}

	limit := keylessRateLimit
	if c.apiKey != "" {
		limit = keyedRateLimit
	}
	c.limiter = rate.NewLimiter(rate.Limit(limit), 1)

	return c
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// fetchSummaries requests raw esummary entries for the given PMIDs.
func (c *Client) fetchSummaries(ctx context.Context, pmids []string) (map[string]map[string]any, error) {
	ids := make([]string, 0, len(pmids))
	for _, pmid := range pmids {
		if pmid != "" {
			ids = append(ids, pmid)
		}
	}
	if len(ids) == 0 {
		return map[string]map[string]any{}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "json")
	params.Set("tool", c.tool)
	if c.email != "" {
		params.Set("email", c.email)
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w %d", ErrBadStatus, resp.StatusCode)
	}

	var payload struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	summaries := make(map[string]map[string]any)
	for _, pmid := range ids {
		raw, ok := payload.Result[pmid]
		if !ok {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		summaries[pmid] = entry
	}
	return summaries, nil
}

// FetchArticleIDs maps the given PMIDs to their cross-referenced PMCIDs
// and DOIs in a single batched request. PMIDs without any article IDs
// are absent from the result.
func (c *Client) FetchArticleIDs(ctx context.Context, pmids []string) (map[string]identifier.Links, error) {
	raw, err := c.fetchSummaries(ctx, pmids)
	if err != nil {
		return nil, err
	}

	result := make(map[string]identifier.Links)
	for pmid, entry := range raw {
		articleIDs, ok := entry["articleids"].([]any)
		if !ok {
			continue
		}
		var links identifier.Links
		for _, item := range articleIDs {
			id, ok := item.(map[string]any)
			if !ok {
				continue
			}
			idType := strings.ToLower(stringValue(id["idtype"]))
			value := stringValue(id["value"])
			if value == "" {
				continue
			}
			switch idType {
			case "pmcid", "pmc":
				if normalized := extractPMCID(value); normalized != "" {
					links.PMCID = normalized
				}
			case "doi":
				links.DOI = value
			}
		}
		if !links.IsEmpty() {
			result[pmid] = links
		}
	}
	return result, nil
}

// FetchMetadata returns the bibliographic summary for one PMID, or nil
// if the service has no entry.
func (c *Client) FetchMetadata(ctx context.Context, pmid string) (*Metadata, error) {
	raw, err := c.fetchSummaries(ctx, []string{pmid})
	if err != nil {
		return nil, err
	}
	entry, ok := raw[pmid]
	if !ok {
		return nil, nil
	}

	meta := &Metadata{
		Title:   stringValue(entry["title"]),
		Journal: stringValue(entry["fulljournalname"]),
	}
	if year := stringValue(entry["pubdate"]); year != "" {
		meta.Year = year
	} else {
		meta.Year = stringValue(entry["sortpubdate"])
	}
	if authors, ok := entry["authors"].([]any); ok {
		for _, item := range authors {
			author, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if name := stringValue(author["name"]); name != "" {
				meta.Authors = append(meta.Authors, name)
			}
		}
	}
	return meta, nil
}

// extractPMCID pulls a canonical PMC identifier out of raw article ID
// values, which sometimes carry version suffixes or URI wrapping.
func extractPMCID(value string) string {
	candidate := strings.TrimSpace(value)
	if candidate == "" {
		return ""
	}
	upper := strings.ToUpper(candidate)
	if match := pmcidPattern.FindString(upper); match != "" {
		return match
	}
	if strings.HasPrefix(upper, "PMC") {
		return upper
	}
	return ""
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
