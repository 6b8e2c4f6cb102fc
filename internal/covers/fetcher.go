// Package covers acquires cover images and normalizes them for packaging.
package covers

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	// Codecs for re-encoding fetched covers to JPEG.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// jpegQuality is the re-encoding quality for normalized covers.
const jpegQuality = 85

// maxCoverBytes caps how much image data a single fetch may return.
const maxCoverBytes = 20 << 20 // 20 MB

// Asset is a fetched cover image. MIMEType is "image/jpeg" after a
// successful normalization; anything else means the conversion failed and
// the caller must treat the cover as unusable for packaging.
type Asset struct {
	Bytes    []byte
	MIMEType string
}

// IsJPEG reports whether the asset may be embedded as the package cover.
func (a *Asset) IsJPEG() bool {
	return a != nil && a.MIMEType == "image/jpeg"
}

// Fetcher downloads cover images and converts them to a canonical JPEG
// encoding.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a cover fetcher with a bounded request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Acquire turns a cover reference into an Asset. A "placeholder" reference
// yields (nil, nil): no cover. Inline data-URIs are decoded as-is without
// re-encoding; remote URLs are fetched, sniffed, and re-encoded to JPEG.
func (f *Fetcher) Acquire(ctx context.Context, coverRef string) (*Asset, error) {
	switch {
	case coverRef == "" || coverRef == "placeholder":
		return nil, nil
	case strings.HasPrefix(coverRef, "data:"):
		return decodeDataURI(coverRef)
	default:
		return f.fetchURL(ctx, coverRef)
	}
}

// decodeDataURI extracts the base64 payload of an inline image. The bytes
// are already understood to be an image and are kept untouched; only the
// MIME type is sniffed from the content.
func decodeDataURI(uri string) (*Asset, error) {
	_, payload, found := strings.Cut(uri, ",")
	if !found {
		return nil, fmt.Errorf("malformed data URI")
	}

	raw, err := decodeBase64(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data URI: %w", err)
	}

	return &Asset{
		Bytes:    raw,
		MIMEType: mimetype.Detect(raw).String(),
	}, nil
}

// decodeBase64 tolerates the encoding variants clients put in data-URIs:
// standard or URL-safe alphabet, with or without padding.
func decodeBase64(payload string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}

	var err error
	for _, enc := range encodings {
		var raw []byte
		if raw, err = enc.DecodeString(payload); err == nil {
			return raw, nil
		}
	}
	return nil, err
}

func (f *Fetcher) fetchURL(ctx context.Context, coverURL string) (*Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "BookScan/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch cover: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return nil, fmt.Errorf("read cover body: %w", err)
	}

	// Trust the bytes, not the URL or the server's Content-Type header.
	sniffed := mimetype.Detect(raw).String()

	if !decodable(sniffed) {
		return &Asset{Bytes: raw, MIMEType: sniffed}, nil
	}

	normalized, err := reencodeJPEG(raw)
	if err != nil {
		log.Printf("WARNING: cover conversion failed (%s): %v", sniffed, err)
		return &Asset{Bytes: raw, MIMEType: sniffed}, nil
	}

	return &Asset{Bytes: normalized, MIMEType: "image/jpeg"}, nil
}

func decodable(mime string) bool {
	switch mime {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}

func reencodeJPEG(raw []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
