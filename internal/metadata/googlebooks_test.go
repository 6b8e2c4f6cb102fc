package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestGoogleBooksClient(serverURL string) *GoogleBooksClient {
	c := NewGoogleBooksClient("test-key", 5*time.Second)
	c.baseURL = serverURL
	return c
}

func TestGoogleBooksLookupISBN(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "isbn:9780134190440" {
			t.Errorf("unexpected query %q", r.URL.Query().Get("q"))
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("API key missing from request")
		}
		response := googleVolumesResult{
			TotalItems: 1,
			Items: []googleVolume{{
				ID: "abc",
				VolumeInfo: googleVolumeInfo{
					Title:         "The Go Programming Language",
					Subtitle:      "Covers Go 1.x",
					Authors:       []string{"Alan A. A. Donovan", "Brian W. Kernighan"},
					Publisher:     "Addison-Wesley",
					PublishedDate: "2015-11-16",
					Description:   "The authoritative resource.",
					IndustryIdentifiers: []googleIndustryIdentifier{
						{Type: "ISBN_10", Identifier: "0134190440"},
						{Type: "ISBN_13", Identifier: "9780134190440"},
					},
					ImageLinks: googleImageLinks{
						Thumbnail: "http://books.google.com/books/content?id=abc",
					},
				},
			}},
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := newTestGoogleBooksClient(server.URL)

	rec, err := client.LookupISBN(context.Background(), "978-0-13-419044-0")
	if err != nil {
		t.Fatalf("LookupISBN failed: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a record")
	}

	if rec.Title != "The Go Programming Language" {
		t.Errorf("unexpected title %q", rec.Title)
	}
	if rec.Subtitle != "Covers Go 1.x" {
		t.Errorf("unexpected subtitle %q", rec.Subtitle)
	}
	if rec.Author != "Alan A. A. Donovan & Brian W. Kernighan" {
		t.Errorf("authors must be ampersand-joined, got %q", rec.Author)
	}
	if rec.ISBN != "9780134190440" {
		t.Errorf("ISBN-13 must be preferred, got %q", rec.ISBN)
	}
	if rec.CoverRef != "https://books.google.com/books/content?id=abc" {
		t.Errorf("thumbnail must be upgraded to https, got %q", rec.CoverRef)
	}
	if rec.Source != "Google Books" {
		t.Errorf("unexpected source %q", rec.Source)
	}
}

func TestGoogleBooksLookupISBN_NoItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalItems":0}`))
	}))
	defer server.Close()

	client := newTestGoogleBooksClient(server.URL)

	rec, err := client.LookupISBN(context.Background(), "9780134190440")
	if err != nil {
		t.Fatalf("empty result must not be an error: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil record, got %+v", rec)
	}
}

func TestGoogleBooksLookupISBN_InvalidISBN(t *testing.T) {
	client := newTestGoogleBooksClient("http://unused.invalid")

	if _, err := client.LookupISBN(context.Background(), "123"); err == nil {
		t.Error("expected error for malformed ISBN")
	}
}

func TestGoogleBooksSearchTitleAuthor_TruncatesToLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items := make([]googleVolume, 5)
		for i := range items {
			items[i].VolumeInfo.Title = "Result"
		}
		_ = json.NewEncoder(w).Encode(googleVolumesResult{TotalItems: 5, Items: items})
	}))
	defer server.Close()

	client := newTestGoogleBooksClient(server.URL)

	recs, err := client.SearchTitleAuthor(context.Background(), "result", "", 3)
	if err != nil {
		t.Fatalf("SearchTitleAuthor failed: %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("expected truncation to 3 records, got %d", len(recs))
	}
}

func TestGoogleBooksSearchTitleAuthor_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestGoogleBooksClient(server.URL)

	if _, err := client.SearchTitleAuthor(context.Background(), "q", "", 3); err == nil {
		t.Error("expected error for 500 response")
	}
}
