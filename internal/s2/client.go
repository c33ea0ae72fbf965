// Package s2 provides a client for the Semantic Scholar Academic Graph
// API, used to look up external identifiers and paper metadata.
package s2

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/nspond/curate/internal/identifier"
)

const (
	// BaseURL is the Semantic Scholar Graph API base URL.
	BaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// Unauthenticated clients share a strict pool; 1 rps keeps us well
	// inside it. Keyed clients are allowed 10 rps.
	keylessRateLimit = 1.0
	keyedRateLimit   = 10.0

	userAgent = "curate/identifier-resolver"
)

// Metadata is the bibliographic summary of one paper.
type Metadata struct {
	Title    string   `json:"title"`
	Abstract string   `json:"abstract"`
	Authors  []string `json:"authors"`
	Venue    string   `json:"venue"`
	Journal  string   `json:"journal"`
	Year     int      `json:"year"`
}

// Client is a rate-limited HTTP client for the Graph API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

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

// NewClient creates a Semantic Scholar Graph API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    BaseURL,
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

// getPaper fetches one paper resource with the given fields. Returns
// nil body for a 404 response.
func (c *Client) getPaper(ctx context.Context, id, fields string) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}

	endpoint := fmt.Sprintf("%s/paper/%s?fields=%s", c.baseURL, url.PathEscape(id), url.QueryEscape(fields))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	req.Header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch %s: %v", ErrNetworkError, id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w for %s", ErrRateLimited, id)
	case resp.StatusCode >= 400:
		return nil, &APIError{StatusCode: resp.StatusCode, PaperID: id}
	}

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return body, nil
}

// FetchExternalIDs looks up the external identifiers linked to the
// given identifier (a PMID, DOI, or Graph API paper ID). Returns nil
// with no error when the paper is unknown to the service.
func (c *Client) FetchExternalIDs(ctx context.Context, id string) (*identifier.Links, error) {
	body, err := c.getPaper(ctx, id, "externalIds")
	if err != nil || body == nil {
		return nil, err
	}

	var payload struct {
		ExternalIDs struct {
			PubMed        string `json:"PubMed"`
			PubMedCentral string `json:"PubMedCentral"`
			PMID          string `json:"PMID"`
			PMCID         string `json:"PMCID"`
			DOI           string `json:"DOI"`
		} `json:"externalIds"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	links := identifier.Links{
		PMID:  firstNonEmpty(payload.ExternalIDs.PubMed, payload.ExternalIDs.PMID),
		PMCID: firstNonEmpty(payload.ExternalIDs.PubMedCentral, payload.ExternalIDs.PMCID),
		DOI:   payload.ExternalIDs.DOI,
	}
	if links.IsEmpty() {
		return nil, nil
	}
	return &links, nil
}

// FetchMetadata returns the bibliographic summary for one identifier,
// or nil if the paper is unknown to the service.
func (c *Client) FetchMetadata(ctx context.Context, id string) (*Metadata, error) {
	body, err := c.getPaper(ctx, id, "title,abstract,authors,venue,journal,year")
	if err != nil || body == nil {
		return nil, err
	}

	var payload struct {
		Title    string `json:"title"`
		Abstract string `json:"abstract"`
		Venue    string `json:"venue"`
		Journal  *struct {
			Name string `json:"name"`
		} `json:"journal"`
		Year    int `json:"year"`
		Authors []struct {
			Name string `json:"name"`
		} `json:"authors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	meta := &Metadata{
		Title:    payload.Title,
		Abstract: payload.Abstract,
		Venue:    payload.Venue,
		Year:     payload.Year,
	}
	if payload.Journal != nil {
		meta.Journal = payload.Journal.Name
	}
	for _, a := range payload.Authors {
		if a.Name != "" {
			meta.Authors = append(meta.Authors, a.Name)
		}
	}
	if meta.Title == "" && meta.Abstract == "" && len(meta.Authors) == 0 {
		return nil, nil
	}
	return meta, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
