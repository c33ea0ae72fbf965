package s2

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/nspond/curate/internal/identifier"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(WithBaseURL(server.URL))
	t.Cleanup(client.Close)
	return client
}

func TestFetchExternalIDs(t *testing.T) {
	var gotPath, gotFields string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFields = r.URL.Query().Get("fields")
		w.Write([]byte(`{
			"paperId": "abc123",
			"externalIds": {
				"PubMed": "31772108",
				"PubMedCentral": "6821550",
				"DOI": "10.1038/s41593-019-0525-x"
			}
		}`))
	})

	links, err := client.FetchExternalIDs(context.Background(), "31772108")
	if err != nil {
		t.Fatalf("FetchExternalIDs() error = %v", err)
	}
	if gotPath != "/paper/31772108" {
		t.Errorf("path = %q", gotPath)
	}
	if gotFields != "externalIds" {
		t.Errorf("fields = %q", gotFields)
	}
	want := &identifier.Links{
		PMID:  "31772108",
		PMCID: "6821550",
		DOI:   "10.1038/s41593-019-0525-x",
	}
	if !reflect.DeepEqual(links, want) {
		t.Errorf("FetchExternalIDs() = %+v, want %+v", links, want)
	}
}

func TestFetchExternalIDs_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	links, err := client.FetchExternalIDs(context.Background(), "999")
	if err != nil {
		t.Fatalf("FetchExternalIDs() error = %v", err)
	}
	if links != nil {
		t.Errorf("FetchExternalIDs() = %+v, want nil for unknown paper", links)
	}
}

func TestFetchExternalIDs_NoIDsMeansUnknown(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"paperId": "abc123", "externalIds": {}}`))
	})

	links, err := client.FetchExternalIDs(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("FetchExternalIDs() error = %v", err)
	}
	if links != nil {
		t.Errorf("FetchExternalIDs() = %+v, want nil when no identifiers returned", links)
	}
}

func TestFetchExternalIDs_RateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.FetchExternalIDs(context.Background(), "111")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("FetchExternalIDs() error = %v, want ErrRateLimited", err)
	}
	if !IsRateLimited(err) {
		t.Error("IsRateLimited() = false")
	}
}

func TestFetchExternalIDs_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FetchExternalIDs(context.Background(), "111")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("FetchExternalIDs() error = %v, want APIError", err)
	}
	if apiErr.StatusCode != 500 || apiErr.PaperID != "111" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestFetchExternalIDs_APIKeyHeader(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithAPIKey("secret"))
	defer client.Close()

	if _, err := client.FetchExternalIDs(context.Background(), "111"); err != nil {
		t.Fatalf("FetchExternalIDs() error = %v", err)
	}
	if gotKey != "secret" {
		t.Errorf("x-api-key header = %q, want secret", gotKey)
	}
}

func TestFetchMetadata(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"title": "Cortical dynamics of visual attention",
			"abstract": "We recorded...",
			"venue": "Nature Neuroscience",
			"journal": {"name": "Nat Neurosci"},
			"year": 2019,
			"authors": [{"name": "J. Smith"}, {"name": ""}]
		}`))
	})

	meta, err := client.FetchMetadata(context.Background(), "10.1038/s41593-019-0525-x")
	if err != nil {
		t.Fatalf("FetchMetadata() error = %v", err)
	}
	if meta == nil {
		t.Fatal("FetchMetadata() = nil")
	}
	if meta.Title != "Cortical dynamics of visual attention" || meta.Year != 2019 {
		t.Errorf("metadata = %+v", meta)
	}
	if meta.Journal != "Nat Neurosci" {
		t.Errorf("Journal = %q", meta.Journal)
	}
	if !reflect.DeepEqual(meta.Authors, []string{"J. Smith"}) {
		t.Errorf("Authors = %v, want blank names dropped", meta.Authors)
	}
}

func TestFetchMetadata_EmptyPaper(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"year": 0}`))
	})

	meta, err := client.FetchMetadata(context.Background(), "111")
	if err != nil {
		t.Fatalf("FetchMetadata() error = %v", err)
	}
	if meta != nil {
		t.Errorf("FetchMetadata() = %+v, want nil for empty payload", meta)
	}
}
