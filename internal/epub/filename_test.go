package epub

import (
	"strings"
	"testing"

	"github.com/mrlokans/bookscan/internal/metadata"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		name     string
		rec      metadata.BookRecord
		expected string
	}{
		{
			name: "basic",
			rec: metadata.BookRecord{
				Author: "Jane Q. Public",
				Title:  "My Book: A Subtitle",
				ISBN:   "1234567890",
			},
			expected: "jane-q-public-my-book-a-subtitle-1234567890.epub",
		},
		{
			name: "subtitle appended before truncation",
			rec: metadata.BookRecord{
				Author:   "Ann Author",
				Title:    "Short",
				Subtitle: "The Real Story",
				ISBN:     "1111111111",
			},
			expected: "ann-author-short-the-real-story-1111111111.epub",
		},
		{
			name: "placeholder subtitle ignored",
			rec: metadata.BookRecord{
				Author:   "Ann Author",
				Title:    "Short",
				Subtitle: "N/A",
				ISBN:     "1111111111",
			},
			expected: "ann-author-short-1111111111.epub",
		},
		{
			name: "hyphenated isbn normalized",
			rec: metadata.BookRecord{
				Author: "Ann Author",
				Title:  "Short",
				ISBN:   "978-3-16-148410-0",
			},
			expected: "ann-author-short-9783161484100.epub",
		},
		{
			name: "non-isbn value slugged as-is",
			rec: metadata.BookRecord{
				Author: "Ann Author",
				Title:  "Short",
				ISBN:   "N/A",
			},
			expected: "ann-author-short-n-a.epub",
		},
		{
			name: "unicode and symbols stripped",
			rec: metadata.BookRecord{
				Author: "José Ñuñez!!",
				Title:  "C++ & Go",
				ISBN:   "978-3-16-148410-0",
			},
			expected: "jos-u-ez-c-go-9783161484100.epub",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filename(tt.rec)
			if got != tt.expected {
				t.Errorf("Filename() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFilenameTruncation(t *testing.T) {
	rec := metadata.BookRecord{
		Author: strings.Repeat("a", 50),
		Title:  strings.Repeat("t", 80),
		ISBN:   "1234567890",
	}

	got := Filename(rec)
	expected := strings.Repeat("a", 30) + "-" + strings.Repeat("t", 40) + "-1234567890.epub"
	if got != expected {
		t.Errorf("Filename() = %q, want %q", got, expected)
	}
}

func TestSanitizeSlug(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Jane Q. Public", "jane-q-public"},
		{"My Book: A Subtitle", "my-book-a-subtitle"},
		{"  --- spaced --- ", "spaced"},
		{"UPPER lower 123", "upper-lower-123"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := sanitizeSlug(tt.input); got != tt.expected {
				t.Errorf("sanitizeSlug(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
