package fulltext

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const articleHTML = `<html>
<head><title>PMC</title><script>tracking();</script></head>
<body>
<nav>Home | Browse</nav>
<header>PubMed Central</header>
<article>
<h1>Cortical dynamics of visual attention</h1>

<p>We recorded neural activity.</p>
</article>
<footer>NIH</footer>
</body>
</html>`

func TestCleanHTML(t *testing.T) {
	text, err := CleanHTML(articleHTML)
	if err != nil {
		t.Fatalf("CleanHTML() error = %v", err)
	}
	want := "Cortical dynamics of visual attention\nWe recorded neural activity."
	if text != want {
		t.Errorf("CleanHTML() = %q, want %q", text, want)
	}
	for _, chrome := range []string{"tracking", "Home | Browse", "PubMed Central", "NIH"} {
		if strings.Contains(text, chrome) {
			t.Errorf("CleanHTML() kept chrome %q", chrome)
		}
	}
}

func TestScraperFetchText(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	s := NewScraper(WithScraperURLFormat(server.URL + "/articles/%s/"))
	text, err := s.FetchText(context.Background(), "PMC123")
	if err != nil {
		t.Fatalf("FetchText() error = %v", err)
	}
	if gotPath != "/articles/PMC123/" {
		t.Errorf("path = %q", gotPath)
	}
	if !strings.Contains(text, "We recorded neural activity.") {
		t.Errorf("FetchText() = %q", text)
	}
}

func TestScraperFetchTextByPMID(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	s := NewScraper(WithScraperURLFormat(server.URL + "/articles/%s/"))
	if _, err := s.FetchTextByPMID(context.Background(), "111"); err != nil {
		t.Fatalf("FetchTextByPMID() error = %v", err)
	}
	if gotPath != "/articles/pmid/111/" {
		t.Errorf("path = %q, want pmid redirect form", gotPath)
	}
}

func TestScraperFetchText_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := NewScraper(WithScraperURLFormat(server.URL + "/articles/%s/"))
	text, err := s.FetchText(context.Background(), "PMC999")
	if err != nil {
		t.Fatalf("FetchText() error = %v", err)
	}
	if text != "" {
		t.Errorf("FetchText() = %q, want empty for 404", text)
	}
}

func TestScraperFetchText_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := NewScraper(WithScraperURLFormat(server.URL + "/articles/%s/"))
	_, err := s.FetchText(context.Background(), "PMC123")
	if !errors.Is(err, ErrScrapeFailed) {
		t.Errorf("FetchText() error = %v, want ErrScrapeFailed", err)
	}
}
