package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GoogleBooksClient fetches book metadata from the Google Books volumes API.
type GoogleBooksClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewGoogleBooksClient creates a Google Books client. The API key is
// optional; anonymous requests are allowed at a lower quota.
func NewGoogleBooksClient(apiKey string, timeout time.Duration) *GoogleBooksClient {
	return &GoogleBooksClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://www.googleapis.com",
		apiKey:  apiKey,
	}
}

// Name identifies this source in consolidated records.
func (c *GoogleBooksClient) Name() string { return "Google Books" }

// LookupISBN looks up a single volume by ISBN. Returns (nil, nil) when the
// ISBN is unknown to Google Books.
func (c *GoogleBooksClient) LookupISBN(ctx context.Context, isbn string) (*BookRecord, error) {
	isbn = NormalizeISBN(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("invalid ISBN")
	}

	q := url.Values{}
	q.Set("q", "isbn:"+isbn)
	q.Set("maxResults", "1")

	result, err := c.query(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	rec := c.convertVolume(&result.Items[0])
	if rec.ISBN == "" {
		rec.ISBN = isbn
	}
	return rec, nil
}

// SearchTitleAuthor searches volumes by title and optional author,
// returning up to limit candidates.
func (c *GoogleBooksClient) SearchTitleAuthor(ctx context.Context, title, author string, limit int) ([]BookRecord, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("title is required")
	}

	terms := fmt.Sprintf("intitle:%s", title)
	if author != "" {
		terms += fmt.Sprintf("+inauthor:%s", author)
	}

	q := url.Values{}
	q.Set("q", terms)
	q.Set("maxResults", fmt.Sprintf("%d", limit))

	result, err := c.query(ctx, q)
	if err != nil {
		return nil, err
	}

	records := make([]BookRecord, 0, len(result.Items))
	for i := range result.Items {
		if len(records) >= limit {
			break
		}
		records = append(records, *c.convertVolume(&result.Items[i]))
	}
	return records, nil
}

func (c *GoogleBooksClient) query(ctx context.Context, q url.Values) (*googleVolumesResult, error) {
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	reqURL := fmt.Sprintf("%s/books/v1/volumes?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query volumes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result googleVolumesResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func (c *GoogleBooksClient) convertVolume(item *googleVolume) *BookRecord {
	info := item.VolumeInfo

	rec := &BookRecord{
		Title:         info.Title,
		Subtitle:      info.Subtitle,
		Author:        strings.Join(info.Authors, " & "),
		Description:   info.Description,
		Publisher:     info.Publisher,
		PublishedDate: info.PublishedDate,
		Source:        c.Name(),
	}

	// Prefer ISBN-13 over ISBN-10.
	for _, id := range info.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			rec.ISBN = id.Identifier
			break
		}
		if id.Type == "ISBN_10" && rec.ISBN == "" {
			rec.ISBN = id.Identifier
		}
	}

	if info.ImageLinks.Thumbnail != "" {
		// Google serves thumbnails over plain HTTP by default.
		rec.CoverRef = strings.Replace(info.ImageLinks.Thumbnail, "http://", "https://", 1)
	}

	return rec
}

// Google Books API response types (internal)

type googleVolumesResult struct {
	TotalItems int            `json:"totalItems"`
	Items      []googleVolume `json:"items"`
}

type googleVolume struct {
	ID         string           `json:"id"`
	VolumeInfo googleVolumeInfo `json:"volumeInfo"`
}

type googleVolumeInfo struct {
	Title               string                     `json:"title"`
	Subtitle            string                     `json:"subtitle"`
	Authors             []string                   `json:"authors"`
	Publisher           string                     `json:"publisher"`
	PublishedDate       string                     `json:"publishedDate"`
	Description         string                     `json:"description"`
	IndustryIdentifiers []googleIndustryIdentifier `json:"industryIdentifiers"`
	ImageLinks          googleImageLinks           `json:"imageLinks"`
}

type googleIndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type googleImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}
