// Package pmc provides a client for the NCBI PMC identifier conversion
// service, mapping PMCIDs to their PMIDs and DOIs.
package pmc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nspond/curate/internal/identifier"
)

const (
	// BaseURL is the PMC ID converter endpoint.
	BaseURL = "https://www.ncbi.nlm.nih.gov/pmc/utils/idconv/v1.0/"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultTool identifies this pipeline to NCBI.
	DefaultTool = "curate"

	// NCBI allows 3 requests per second without an API key.
	keylessRateLimit = 3.0
	keyedRateLimit   = 10.0
)

// Common errors returned by the client.
var (
	// ErrRequestFailed indicates a transport-level failure.
	ErrRequestFailed = errors.New("pmc: request failed")

	// ErrBadStatus indicates an HTTP error response.
	ErrBadStatus = errors.New("pmc: error")

	// ErrInvalidResponse indicates an unparseable response body.
	ErrInvalidResponse = errors.New("pmc: invalid JSON response")
)

// Client is a rate-limited HTTP client for the PMC ID converter.
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

// WithTool overrides the tool name sent to NCBI.
func WithTool(tool string) ClientOption {
	return func(c *Client) {
		c.tool = tool
	}
}

// NewClient creates a PMC ID converter client.
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

// conversionResponse mirrors the idconv JSON payload.
type conversionResponse struct {
	Records []conversionRecord `json:"records"`
}

type conversionRecord struct {
	PMCID string `json:"pmcid"`
	PMID  string `json:"pmid"`
	DOI   string `json:"doi"`
}

// Convert maps the given PMCIDs to their related identifiers in a
// single batched request. PMCIDs unknown to the service are absent from
// the result. An empty input yields an empty map without a request.
func (c *Client) Convert(ctx context.Context, pmcids []string) (map[string]identifier.Links, error) {
	ids := make([]string, 0, len(pmcids))
	for _, pmcid := range pmcids {
		if pmcid != "" {
			ids = append(ids, pmcid)
		}
	}
	if len(ids) == 0 {
		return map[string]identifier.Links{}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("format", "json")
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

	var payload conversionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	result := make(map[string]identifier.Links)
	for _, rec := range payload.Records {
		if rec.PMCID == "" {
			continue
		}
		result[rec.PMCID] = identifier.Links{PMID: rec.PMID, DOI: rec.DOI}
	}
	return result, nil
}
