package covers

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func TestAcquire_Placeholder(t *testing.T) {
	f := NewFetcher(5 * time.Second)

	for _, ref := range []string{"", "placeholder"} {
		asset, err := f.Acquire(context.Background(), ref)
		if err != nil {
			t.Errorf("Acquire(%q) returned error: %v", ref, err)
		}
		if asset != nil {
			t.Errorf("Acquire(%q) should produce no asset", ref)
		}
	}
}

func TestAcquire_DataURIKeptAsIs(t *testing.T) {
	f := NewFetcher(5 * time.Second)

	raw := testPNG(t)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	asset, err := f.Acquire(context.Background(), uri)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if !bytes.Equal(asset.Bytes, raw) {
		t.Error("data URI bytes must not be re-encoded")
	}
	if asset.MIMEType != "image/png" {
		t.Errorf("expected sniffed image/png, got %q", asset.MIMEType)
	}
	if asset.IsJPEG() {
		t.Error("png data URI must not report as JPEG")
	}
}

func TestAcquire_DataURIUnpadded(t *testing.T) {
	f := NewFetcher(5 * time.Second)

	raw := []byte("unpadded bytes")
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	if strings.ContainsRune(encoded, '=') {
		t.Fatal("payload must be unpadded for this case")
	}

	asset, err := f.Acquire(context.Background(), "data:image/png;base64,"+encoded)
	if err != nil {
		t.Fatalf("Acquire failed on unpadded payload: %v", err)
	}
	if !bytes.Equal(asset.Bytes, raw) {
		t.Error("unpadded payload decoded to wrong bytes")
	}
}

func TestAcquire_DataURIMalformed(t *testing.T) {
	f := NewFetcher(5 * time.Second)

	if _, err := f.Acquire(context.Background(), "data:image/png;base64"); err == nil {
		t.Error("expected error for data URI without payload")
	}
	if _, err := f.Acquire(context.Background(), "data:image/png;base64,!!!"); err == nil {
		t.Error("expected error for invalid base64 payload")
	}
}

func TestAcquire_URLReencodedToJPEG(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Deliberately wrong Content-Type; sniffing must ignore it.
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(testPNG(t))
	}))
	defer server.Close()

	f := NewFetcher(5 * time.Second)

	asset, err := f.Acquire(context.Background(), server.URL+"/cover.png")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if !asset.IsJPEG() {
		t.Fatalf("expected image/jpeg after normalization, got %q", asset.MIMEType)
	}
	if _, _, err := image.Decode(bytes.NewReader(asset.Bytes)); err != nil {
		t.Errorf("re-encoded bytes are not a decodable image: %v", err)
	}
}

func TestAcquire_URLNonImageKeptRaw(t *testing.T) {
	body := []byte("<html><body>not an image</body></html>")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg") // lying header
		_, _ = w.Write(body)
	}))
	defer server.Close()

	f := NewFetcher(5 * time.Second)

	asset, err := f.Acquire(context.Background(), server.URL+"/cover.jpg")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if asset.IsJPEG() {
		t.Errorf("HTML must never pass as JPEG, got %q", asset.MIMEType)
	}
	if !bytes.Equal(asset.Bytes, body) {
		t.Error("non-image payload must be kept raw")
	}
}

func TestAcquire_URLFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(5 * time.Second)

	if _, err := f.Acquire(context.Background(), server.URL+"/missing.jpg"); err == nil {
		t.Error("expected error for 404 response")
	}
}
