package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const openLibraryUserAgent = "BookScan/1.0 (https://github.com/mrlokans/bookscan)"

// OpenLibraryClient fetches book metadata from the OpenLibrary API.
type OpenLibraryClient struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}

// NewOpenLibraryClient creates an OpenLibrary API client with rate limiting.
func NewOpenLibraryClient(timeout time.Duration) *OpenLibraryClient {
	return &OpenLibraryClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     "https://openlibrary.org",
		rateLimiter: newRateLimiter(time.Second), // 1 request per second
	}
}

// Name identifies this source in consolidated records.
func (c *OpenLibraryClient) Name() string { return "OpenLibrary" }

// LookupISBN looks up a book by its ISBN. Returns (nil, nil) when
// OpenLibrary has no edition for the ISBN.
func (c *OpenLibraryClient) LookupISBN(ctx context.Context, isbn string) (*BookRecord, error) {
	isbn = NormalizeISBN(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("invalid ISBN")
	}

	c.rateLimiter.wait()

	reqURL := fmt.Sprintf("%s/isbn/%s.json", c.baseURL, isbn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", openLibraryUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ISBN data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var bookData openLibraryBook
	if err := json.NewDecoder(resp.Body).Decode(&bookData); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	rec := c.convertBook(&bookData, isbn)

	// The edition record references authors by key only.
	if len(bookData.Authors) > 0 && rec.Author == "" {
		authorName, err := c.fetchAuthorName(ctx, bookData.Authors[0].Key)
		if err == nil {
			rec.Author = authorName
		}
	}

	return rec, nil
}

// SearchTitleAuthor searches OpenLibrary by title and optional author,
// returning up to limit candidates.
func (c *OpenLibraryClient) SearchTitleAuthor(ctx context.Context, title, author string, limit int) ([]BookRecord, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("title is required")
	}

	c.rateLimiter.wait()

	q := url.Values{}
	q.Set("title", title)
	if author != "" {
		q.Set("author", author)
	}
	q.Set("limit", fmt.Sprintf("%d", limit))

	searchURL := fmt.Sprintf("%s/search.json?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", openLibraryUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var searchResult openLibrarySearchResult
	if err := json.NewDecoder(resp.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	records := make([]BookRecord, 0, len(searchResult.Docs))
	for i := range searchResult.Docs {
		if len(records) >= limit {
			break
		}
		records = append(records, *c.convertSearchDoc(&searchResult.Docs[i]))
	}
	return records, nil
}

func (c *OpenLibraryClient) fetchAuthorName(ctx context.Context, authorKey string) (string, error) {
	if authorKey == "" {
		return "", fmt.Errorf("empty author key")
	}

	c.rateLimiter.wait()

	reqURL := fmt.Sprintf("%s%s.json", c.baseURL, authorKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", openLibraryUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status: %d", resp.StatusCode)
	}

	var authorData struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&authorData); err != nil {
		return "", err
	}

	return authorData.Name, nil
}

func (c *OpenLibraryClient) convertBook(book *openLibraryBook, isbn string) *BookRecord {
	rec := &BookRecord{
		Title:         book.Title,
		Subtitle:      book.Subtitle,
		ISBN:          isbn,
		Publisher:     firstOf(book.Publishers),
		PublishedDate: book.PublishDate,
		Source:        c.Name(),
	}

	if len(book.Covers) > 0 {
		rec.CoverRef = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", book.Covers[0])
	}

	// Description is either a string or a {type, value} object.
	switch v := book.Description.(type) {
	case string:
		rec.Description = v
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			rec.Description = val
		}
	}

	return rec
}

func (c *OpenLibraryClient) convertSearchDoc(doc *openLibrarySearchDoc) *BookRecord {
	rec := &BookRecord{
		Title:  doc.Title,
		Author: strings.Join(doc.AuthorName, " & "),
		Source: c.Name(),
	}

	if doc.FirstPublishYear > 0 {
		rec.PublishedDate = fmt.Sprintf("%d", doc.FirstPublishYear)
	}
	rec.Publisher = firstOf(doc.Publisher)
	rec.ISBN = firstOf(doc.ISBN)

	if doc.CoverI != 0 {
		rec.CoverRef = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", doc.CoverI)
	} else if rec.ISBN != "" {
		rec.CoverRef = fmt.Sprintf("https://covers.openlibrary.org/b/isbn/%s-L.jpg", rec.ISBN)
	}

	return rec
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// OpenLibrary API response types (internal)

type openLibraryBook struct {
	Key         string      `json:"key"`
	Title       string      `json:"title"`
	Subtitle    string      `json:"subtitle"`
	Authors     []authorRef `json:"authors"`
	Publishers  []string    `json:"publishers"`
	PublishDate string      `json:"publish_date"`
	Description any         `json:"description"` // Can be string or {type, value}
	Covers      []int       `json:"covers"`
}

type authorRef struct {
	Key string `json:"key"`
}

type openLibrarySearchResult struct {
	NumFound int                    `json:"numFound"`
	Docs     []openLibrarySearchDoc `json:"docs"`
}

type openLibrarySearchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	Publisher        []string `json:"publisher"`
	ISBN             []string `json:"isbn"`
	CoverI           int      `json:"cover_i"`
}
