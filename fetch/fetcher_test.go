package fetch

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestFetcher(endpoint string, client *http.Client) (*ScraperAPIFetcher, *[]time.Duration) {
	slept := []time.Duration{}
	f := &ScraperAPIFetcher{
		APIKey:   "test-key",
		endpoint: endpoint,
		client:   client,
		sleep:    func(d time.Duration) { slept = append(slept, d) },
	}
	return f, &slept
}

func TestScraperAPIFetchHeaders(t *testing.T) {
	var gotHeaders http.Header
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotURL = r.URL.Query().Get("url")
		w.Write([]byte("<html><body>page</body></html>"))
	}))
	defer srv.Close()

	f, _ := newTestFetcher(srv.URL, srv.Client())
	got, err := f.Fetch("https://example.com/list?page=2", FetchOpts{Render: true, AutoScroll: true})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if got != "<html><body>page</body></html>" {
		t.Errorf("body = %q", got)
	}
	if gotURL != "https://example.com/list?page=2" {
		t.Errorf("proxied url = %q", gotURL)
	}
	if gotHeaders.Get("x-sapi-api_key") != "test-key" {
		t.Errorf("x-sapi-api_key = %q", gotHeaders.Get("x-sapi-api_key"))
	}
	if gotHeaders.Get("x-sapi-render") != "true" {
		t.Errorf("x-sapi-render = %q", gotHeaders.Get("x-sapi-render"))
	}
	instructions := gotHeaders.Get("x-sapi-instruction_set")
	if !strings.Contains(instructions, `"scroll"`) {
		t.Errorf("x-sapi-instruction_set = %q, want scroll instructions", instructions)
	}
}

func TestScraperAPIFetchNoScrollHeader(t *testing.T) {
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f, _ := newTestFetcher(srv.URL, srv.Client())
	if _, err := f.Fetch("https://example.com", FetchOpts{Render: false}); err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if gotHeaders.Get("x-sapi-render") != "false" {
		t.Errorf("x-sapi-render = %q", gotHeaders.Get("x-sapi-render"))
	}
	if got := gotHeaders.Get("x-sapi-instruction_set"); got != "" {
		t.Errorf("x-sapi-instruction_set = %q, want unset", got)
	}
}

func TestScraperAPIFetchRetriesThenSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "upstream timeout", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("finally"))
	}))
	defer srv.Close()

	f, slept := newTestFetcher(srv.URL, srv.Client())
	got, err := f.Fetch("https://example.com", FetchOpts{})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if got != "finally" {
		t.Errorf("body = %q", got)
	}
	if calls != 3 {
		t.Errorf("server saw %d calls, want 3", calls)
	}
	wantSleeps := []time.Duration{4 * time.Second, 8 * time.Second}
	if len(*slept) != len(wantSleeps) {
		t.Fatalf("sleeps = %v, want %v", *slept, wantSleeps)
	}
	for i, d := range wantSleeps {
		if (*slept)[i] != d {
			t.Errorf("sleep %d = %v, want %v", i, (*slept)[i], d)
		}
	}
}

func TestScraperAPIFetchExhaustsAttempts(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	f, _ := newTestFetcher(srv.URL, srv.Client())
	_, err := f.Fetch("https://example.com", FetchOpts{})
	if err == nil {
		t.Fatal("Fetch() succeeded, want error")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error type = %T, want *FetchError", err)
	}
	if fe.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", fe.StatusCode)
	}
	if fe.URL != "https://example.com" {
		t.Errorf("url = %q", fe.URL)
	}
	if calls != 3 {
		t.Errorf("server saw %d calls, want 3", calls)
	}
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	fpath := filepath.Join(dir, "page.html")
	if err := os.WriteFile(fpath, []byte("<html>local</html>"), 0644); err != nil {
		t.Fatal(err)
	}

	f := &FileFetcher{}
	got, err := f.Fetch("file://"+fpath, FetchOpts{})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if got != "<html>local</html>" {
		t.Errorf("body = %q", got)
	}

	_, err = f.Fetch("file://"+filepath.Join(dir, "missing.html"), FetchOpts{})
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error type = %T, want *FetchError", err)
	}
}
