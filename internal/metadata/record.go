package metadata

import "strings"

// Placeholder sentinels used when a source has no data for a field.
// The title page must always render something, so unknown fields carry
// these values instead of empty strings.
const (
	PlaceholderTitle  = "Title Not Found"
	PlaceholderAuthor = "Author Not Found"
	PlaceholderValue  = "N/A"

	// PlaceholderCover marks a record with no usable cover reference.
	PlaceholderCover = "placeholder"
)

// BookRecord is the normalized bibliographic record produced by source
// adapters and consumed by the packaging pipeline. CoverRef is a remote URL,
// an inline data-URI, or PlaceholderCover.
type BookRecord struct {
	ISBN          string `json:"isbn"`
	Title         string `json:"title"`
	Subtitle      string `json:"subtitle"`
	Author        string `json:"author"`
	Description   string `json:"description"`
	Publisher     string `json:"publisher"`
	PublishedDate string `json:"published_date"`
	CoverRef      string `json:"cover"`
	Source        string `json:"source"`
}

// NewPlaceholderRecord returns a record with every field set to its
// placeholder sentinel.
func NewPlaceholderRecord() BookRecord {
	return BookRecord{
		ISBN:          PlaceholderValue,
		Title:         PlaceholderTitle,
		Subtitle:      PlaceholderValue,
		Author:        PlaceholderAuthor,
		Description:   PlaceholderValue,
		Publisher:     PlaceholderValue,
		PublishedDate: PlaceholderValue,
		CoverRef:      PlaceholderCover,
		Source:        PlaceholderValue,
	}
}

// IsPlaceholder reports whether v is empty or one of the placeholder
// sentinels.
func IsPlaceholder(v string) bool {
	switch v {
	case "", PlaceholderTitle, PlaceholderAuthor, PlaceholderValue, PlaceholderCover:
		return true
	}
	return false
}

// HasCover reports whether the record carries a usable cover reference.
func (r *BookRecord) HasCover() bool {
	return r.CoverRef != "" && r.CoverRef != PlaceholderCover
}

// FillPlaceholders replaces empty title/author/cover fields with their
// sentinels so the record is always renderable.
func (r *BookRecord) FillPlaceholders() {
	if strings.TrimSpace(r.Title) == "" {
		r.Title = PlaceholderTitle
	}
	if strings.TrimSpace(r.Author) == "" {
		r.Author = PlaceholderAuthor
	}
	if strings.TrimSpace(r.CoverRef) == "" {
		r.CoverRef = PlaceholderCover
	}
	if strings.TrimSpace(r.ISBN) == "" {
		r.ISBN = PlaceholderValue
	}
}

// Outcome is the result kind of a resolution call.
type Outcome int

const (
	// OutcomeNotFound means no source produced a usable record.
	OutcomeNotFound Outcome = iota

	// OutcomeFound means resolution consolidated exactly one record.
	OutcomeFound

	// OutcomeAmbiguous means multiple unmerged candidates need external
	// disambiguation.
	OutcomeAmbiguous
)

// Resolution is the tagged outcome of a resolution call. Exactly one of
// Record (Found) or Candidates (Ambiguous) is populated.
type Resolution struct {
	Outcome    Outcome
	Record     *BookRecord
	Candidates []BookRecord
}

// NormalizeISBN removes hyphens and spaces from an ISBN and validates
// its length. Returns the empty string for anything that is not a
// plausible ISBN-10 or ISBN-13. No checksum validation is attempted.
func NormalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	isbn = strings.TrimSpace(isbn)

	if len(isbn) != 10 && len(isbn) != 13 {
		return ""
	}

	return isbn
}
