package epub

import (
	"strings"

	"github.com/mrlokans/bookscan/internal/metadata"
)

const (
	maxTitleSlugLen  = 40
	maxAuthorSlugLen = 30
)

// sanitizeSlug lowercases s and collapses every run of non-alphanumeric
// characters into a single hyphen.
func sanitizeSlug(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}

// Filename builds the output filename for a record:
// {author}-{title}-{isbn}.epub, with the subtitle appended to the title
// part before truncation. The title part is capped at 40 characters and
// the author part at 30. The ISBN part is normalized to bare digits
// before slugging so hyphenated input does not leak into the name.
func Filename(rec metadata.BookRecord) string {
	titlePart := sanitizeSlug(rec.Title)
	if !metadata.IsPlaceholder(rec.Subtitle) {
		titlePart = titlePart + "-" + sanitizeSlug(rec.Subtitle)
	}
	if len(titlePart) > maxTitleSlugLen {
		titlePart = strings.Trim(titlePart[:maxTitleSlugLen], "-")
	}

	authorPart := sanitizeSlug(rec.Author)
	if len(authorPart) > maxAuthorSlugLen {
		authorPart = strings.Trim(authorPart[:maxAuthorSlugLen], "-")
	}

	isbnPart := metadata.NormalizeISBN(rec.ISBN)
	if isbnPart == "" {
		isbnPart = rec.ISBN
	}

	return authorPart + "-" + titlePart + "-" + sanitizeSlug(isbnPart) + ".epub"
}
