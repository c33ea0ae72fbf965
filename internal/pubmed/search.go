// Package pubmed provides a client for the PubMed esearch API with
// transparent result pagination.
package pubmed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Entrez esearch endpoint.
	BaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultTool identifies this pipeline to NCBI.
	DefaultTool = "curate"

	// DefaultRetMax is the default page size for search requests.
	DefaultRetMax = 1000

	keylessRateLimit = 3.0
	keyedRateLimit   = 10.0
)

// Common errors returned by the client.
var (
	ErrRequestFailed   = errors.New("pubmed: request failed")
	ErrBadStatus       = errors.New("pubmed: error")
	ErrInvalidResponse = errors.New("pubmed: unexpected response structure")
)

// SearchOptions restricts a search.
type SearchOptions struct {
	// StartDate and EndDate bound the publication date window
	// (inclusive) when non-zero.
	StartDate time.Time
	EndDate   time.Time
}

// Client is a rate-limited HTTP client for PubMed searches.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	tool       string
	email      string
	apiKey     string
	retMax     int
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

// WithRetMax sets the number of records requested per page.
func WithRetMax(retMax int) ClientOption {
	return func(c *Client) {
		if retMax > 0 {
			c.retMax = retMax
		}
	}
}

// NewClient creates a PubMed search client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    BaseURL,
		tool:       DefaultTool,
		retMax:     DefaultRetMax,
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

func (c *Client) buildParams(query string, opts SearchOptions, retStart int) url.Values {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmode", "json")
	params.Set("retmax", strconv.Itoa(c.retMax))
	params.Set("retstart", strconv.Itoa(retStart))
	params.Set("tool", c.tool)
	if c.email != "" {
		params.Set("email", c.email)
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	if !opts.StartDate.IsZero() || !opts.EndDate.IsZero() {
		params.Set("datetype", "pdat")
	}
	if !opts.StartDate.IsZero() {
		params.Set("mindate", opts.StartDate.Format("2006-01-02"))
	}
	if !opts.EndDate.IsZero() {
		params.Set("maxdate", opts.EndDate.Format("2006-01-02"))
	}
	return params
}

// SearchPMIDs runs a PubMed search and returns every matching PMID,
// paging through results until the reported count is exhausted.
func (c *Client) SearchPMIDs(ctx context.Context, query string, opts SearchOptions) ([]string, error) {
	retStart := 0
	totalCount := -1
	var pmids []string

	for {
		batch, count, err := c.searchPage(ctx, query, opts, retStart)
		if err != nil {
			return nil, err
		}
		pmids = append(pmids, batch...)

		if totalCount < 0 {
			totalCount = count
		}
		if len(batch) == 0 {
			break
		}
		retStart += len(batch)
		if retStart >= totalCount {
			break
		}
	}

	return pmids, nil
}

func (c *Client) searchPage(ctx context.Context, query string, opts SearchOptions, retStart int) ([]string, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	params := c.buildParams(query, opts, retStart)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, 0, fmt.Errorf("%w %d", ErrBadStatus, resp.StatusCode)
	}

	var payload struct {
		ESearchResult *struct {
			Count  string   `json:"count"`
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if payload.ESearchResult == nil {
		return nil, 0, ErrInvalidResponse
	}

	count := len(payload.ESearchResult.IDList)
	if payload.ESearchResult.Count != "" {
		parsed, err := strconv.Atoi(payload.ESearchResult.Count)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: invalid count %q", ErrInvalidResponse, payload.ESearchResult.Count)
		}
		count = parsed
	}

	return payload.ESearchResult.IDList, count, nil
}
