package epub

import (
	"fmt"
	"strings"
	"time"

	"github.com/mrlokans/bookscan/internal/metadata"
)

// Internal archive paths. Readers expect the exact layout, so these are
// fixed rather than configurable.
const (
	mimetypeContent = "application/epub+zip"

	containerPath = "META-INF/container.xml"
	opfPath       = "OEBPS/content.opf"
	ncxPath       = "OEBPS/toc.ncx"
	navPath       = "OEBPS/nav.xhtml"
	titlePagePath = "OEBPS/titlepage.xhtml"
	coverPath     = "OEBPS/cover.jpeg"

	defaultPublicationDate = "2024-01-01"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// escape makes user-supplied text safe for interpolation into XML.
func escape(s string) string {
	return xmlEscaper.Replace(s)
}

// sortKey computes a "Last, First" file-as value from the primary author.
// When several authors are joined with "&", only the first contributes.
func sortKey(author string) string {
	primary := author
	if idx := strings.Index(author, "&"); idx >= 0 {
		primary = author[:idx]
	}
	primary = strings.TrimSpace(primary)

	parts := strings.Fields(primary)
	if len(parts) < 2 {
		return primary
	}
	last := parts[len(parts)-1]
	first := strings.Join(parts[:len(parts)-1], " ")
	return last + ", " + first
}

// publicationDate takes the first 10 characters of the record's published
// date, falling back to a fixed default when absent or too short to hold a
// full YYYY-MM-DD value.
func publicationDate(published string) string {
	if metadata.IsPlaceholder(published) || len(published) < 10 {
		return defaultPublicationDate
	}
	return published[:10]
}

func renderContainerXML() string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="%s" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`, opfPath)
}

// renderOPF renders the package document. The cover metadata reference and
// manifest entry are emitted only when a cover asset is embedded.
func renderOPF(rec metadata.BookRecord, identifier string, modified time.Time, hasCover bool) string {
	var b strings.Builder

	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="book-id" xml:lang="en">` + "\n")
	b.WriteString(`  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">` + "\n")

	fmt.Fprintf(&b, "    <dc:identifier id=\"book-id\">urn:uuid:%s</dc:identifier>\n", escape(identifier))
	fmt.Fprintf(&b, "    <dc:identifier>urn:isbn:%s</dc:identifier>\n", escape(rec.ISBN))
	fmt.Fprintf(&b, "    <dc:identifier>isbn:%s</dc:identifier>\n", escape(rec.ISBN))

	fmt.Fprintf(&b, "    <dc:title id=\"title\">%s</dc:title>\n", escape(rec.Title))
	b.WriteString("    <meta refines=\"#title\" property=\"title-type\">main</meta>\n")
	if !metadata.IsPlaceholder(rec.Subtitle) {
		fmt.Fprintf(&b, "    <dc:title id=\"subtitle\">%s</dc:title>\n", escape(rec.Subtitle))
		b.WriteString("    <meta refines=\"#subtitle\" property=\"title-type\">subtitle</meta>\n")
	}

	fmt.Fprintf(&b, "    <dc:creator id=\"creator\">%s</dc:creator>\n", escape(rec.Author))
	fmt.Fprintf(&b, "    <meta refines=\"#creator\" property=\"file-as\">%s</meta>\n", escape(sortKey(rec.Author)))
	b.WriteString("    <meta refines=\"#creator\" property=\"role\" scheme=\"marc:relators\">aut</meta>\n")

	fmt.Fprintf(&b, "    <dc:publisher>%s</dc:publisher>\n", escape(rec.Publisher))
	b.WriteString("    <dc:language>en</dc:language>\n")
	fmt.Fprintf(&b, "    <dc:description>%s</dc:description>\n", escape(rec.Description))
	fmt.Fprintf(&b, "    <dc:date>%s</dc:date>\n", escape(publicationDate(rec.PublishedDate)))
	fmt.Fprintf(&b, "    <meta property=\"dcterms:modified\">%s</meta>\n", modified.UTC().Format("2006-01-02T15:04:05Z"))
	if hasCover {
		b.WriteString("    <meta name=\"cover\" content=\"cover-image\"/>\n")
	}

	b.WriteString("  </metadata>\n")
	b.WriteString("  <manifest>\n")
	b.WriteString("    <item id=\"nav\" href=\"nav.xhtml\" media-type=\"application/xhtml+xml\" properties=\"nav\"/>\n")
	b.WriteString("    <item id=\"ncx\" href=\"toc.ncx\" media-type=\"application/x-dtbncx+xml\"/>\n")
	b.WriteString("    <item id=\"titlepage\" href=\"titlepage.xhtml\" media-type=\"application/xhtml+xml\"/>\n")
	if hasCover {
		b.WriteString("    <item id=\"cover-image\" href=\"cover.jpeg\" media-type=\"image/jpeg\" properties=\"cover-image\"/>\n")
	}
	b.WriteString("  </manifest>\n")
	b.WriteString("  <spine toc=\"ncx\">\n")
	b.WriteString("    <itemref idref=\"titlepage\"/>\n")
	b.WriteString("  </spine>\n")
	b.WriteString("</package>\n")

	return b.String()
}

// renderNav renders the EPUB 3 navigation document: a single entry
// pointing at the title page.
func renderNav(rec metadata.BookRecord) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops" xml:lang="en">
<head>
  <title>%s</title>
</head>
<body>
  <nav epub:type="toc" id="toc">
    <h1>Contents</h1>
    <ol>
      <li><a href="titlepage.xhtml">Title Page</a></li>
    </ol>
  </nav>
</body>
</html>
`, escape(rec.Title))
}

// renderNCX renders the legacy NCX table of contents mirroring the single
// nav entry with a fixed playOrder of 1.
func renderNCX(rec metadata.BookRecord, identifier string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
    <meta name="dtb:uid" content="urn:uuid:%s"/>
    <meta name="dtb:depth" content="1"/>
    <meta name="dtb:totalPageCount" content="0"/>
    <meta name="dtb:maxPageNumber" content="0"/>
  </head>
  <docTitle>
    <text>%s</text>
  </docTitle>
  <navMap>
    <navPoint id="titlepage" playOrder="1">
      <navLabel>
        <text>Title Page</text>
      </navLabel>
      <content src="titlepage.xhtml"/>
    </navPoint>
  </navMap>
</ncx>
`, escape(identifier), escape(rec.Title))
}

// renderTitlePage renders the title page document: cover image (or an
// explicit no-cover block), title, optional subtitle, author, and the
// bibliographic description block.
func renderTitlePage(rec metadata.BookRecord, hasCover bool) string {
	var b strings.Builder

	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="en">` + "\n")
	b.WriteString("<head>\n")
	fmt.Fprintf(&b, "  <title>%s</title>\n", escape(rec.Title))
	b.WriteString(`  <style>
    body { text-align: center; font-family: serif; margin: 2em; }
    .cover img { max-width: 100%; max-height: 60vh; }
    .no-cover { border: 2px dashed #999; padding: 4em 1em; color: #666; }
    .description { text-align: left; margin-top: 2em; font-size: 0.9em; }
  </style>
`)
	b.WriteString("</head>\n<body>\n")

	if hasCover {
		b.WriteString("  <div class=\"cover\"><img src=\"cover.jpeg\" alt=\"Cover\"/></div>\n")
	} else {
		b.WriteString("  <div class=\"no-cover\"><p>NO COVER IMAGE AVAILABLE</p></div>\n")
	}

	fmt.Fprintf(&b, "  <h1>%s</h1>\n", escape(rec.Title))
	if !metadata.IsPlaceholder(rec.Subtitle) {
		fmt.Fprintf(&b, "  <h2>%s</h2>\n", escape(rec.Subtitle))
	}
	fmt.Fprintf(&b, "  <h3>%s</h3>\n", escape(rec.Author))

	b.WriteString("  <div class=\"description\">\n")
	fmt.Fprintf(&b, "    <p>%s</p>\n", escape(rec.Description))
	fmt.Fprintf(&b, "    <p>ISBN: %s<br/>Publisher: %s<br/>Published: %s</p>\n",
		escape(rec.ISBN), escape(rec.Publisher), escape(rec.PublishedDate))
	b.WriteString("  </div>\n")

	b.WriteString("</body>\n</html>\n")
	return b.String()
}
