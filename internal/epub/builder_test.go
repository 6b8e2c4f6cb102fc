package epub

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookscan/internal/covers"
	"github.com/mrlokans/bookscan/internal/metadata"
)

func testRecord() metadata.BookRecord {
	return metadata.BookRecord{
		ISBN:          "9780134190440",
		Title:         "The Go Programming Language",
		Subtitle:      "N/A",
		Author:        "Alan A. A. Donovan & Brian W. Kernighan",
		Description:   "The authoritative resource.",
		Publisher:     "Addison-Wesley",
		PublishedDate: "2015-11-16",
		CoverRef:      "placeholder",
		Source:        "Google Books",
	}
}

func testJPEGAsset(t *testing.T) *covers.Asset {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return &covers.Asset{Bytes: buf.Bytes(), MIMEType: "image/jpeg"}
}

func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		files[f.Name] = string(data)
	}
	return files
}

func TestBuildMimetypeEntryFirstAndStored(t *testing.T) {
	b, err := NewBuilder(t.TempDir())
	require.NoError(t, err)

	result, err := b.Build(testRecord(), nil)
	require.NoError(t, err)

	zr, err := zip.OpenReader(result.Path)
	require.NoError(t, err)
	defer zr.Close()

	require.NotEmpty(t, zr.File)
	first := zr.File[0]
	assert.Equal(t, "mimetype", first.Name)
	assert.Equal(t, zip.Store, first.Method, "mimetype must be stored uncompressed")

	rc, err := first.Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "application/epub+zip", string(data))
}

func TestBuildArchiveLayout(t *testing.T) {
	b, err := NewBuilder(t.TempDir())
	require.NoError(t, err)

	result, err := b.Build(testRecord(), testJPEGAsset(t))
	require.NoError(t, err)

	files := readArchive(t, result.Path)
	for _, name := range []string{
		"mimetype",
		"META-INF/container.xml",
		"OEBPS/content.opf",
		"OEBPS/toc.ncx",
		"OEBPS/titlepage.xhtml",
		"OEBPS/nav.xhtml",
		"OEBPS/cover.jpeg",
	} {
		assert.Contains(t, files, name)
	}

	assert.Contains(t, files["META-INF/container.xml"], `full-path="OEBPS/content.opf"`)

	opf := files["OEBPS/content.opf"]
	assert.Contains(t, opf, "urn:isbn:9780134190440")
	assert.Contains(t, opf, ">isbn:9780134190440<")
	assert.Contains(t, opf, `properties="cover-image"`)
	assert.Contains(t, opf, "Donovan, Alan A. A.")
	assert.Contains(t, opf, "<dc:date>2015-11-16</dc:date>")

	assert.Contains(t, files["OEBPS/toc.ncx"], `playOrder="1"`)
	assert.Contains(t, files["OEBPS/titlepage.xhtml"], `src="cover.jpeg"`)
}

func TestBuildRejectsNonJPEGCover(t *testing.T) {
	b, err := NewBuilder(t.TempDir())
	require.NoError(t, err)

	asset := &covers.Asset{Bytes: []byte("png bytes"), MIMEType: "image/png"}
	result, err := b.Build(testRecord(), asset)
	require.NoError(t, err)

	files := readArchive(t, result.Path)
	assert.NotContains(t, files, "OEBPS/cover.jpeg")
	assert.NotContains(t, files["OEBPS/content.opf"], "cover-image")
	assert.Contains(t, files["OEBPS/titlepage.xhtml"], "NO COVER IMAGE AVAILABLE")
}

func TestBuildOverwritesExistingArtifact(t *testing.T) {
	b, err := NewBuilder(t.TempDir())
	require.NoError(t, err)

	first, err := b.Build(testRecord(), nil)
	require.NoError(t, err)

	second, err := b.Build(testRecord(), testJPEGAsset(t))
	require.NoError(t, err)

	assert.Equal(t, first.Path, second.Path, "identical metadata must map to the same path")

	// The second build replaced the first artifact.
	files := readArchive(t, second.Path)
	assert.Contains(t, files, "OEBPS/cover.jpeg")
}

func TestBuildEscapesUserText(t *testing.T) {
	b, err := NewBuilder(t.TempDir())
	require.NoError(t, err)

	rec := testRecord()
	rec.Title = `Tom & Jerry <"Special">`
	rec.Description = "a < b && c > d"

	result, err := b.Build(rec, nil)
	require.NoError(t, err)

	files := readArchive(t, result.Path)
	opf := files["OEBPS/content.opf"]
	assert.Contains(t, opf, "Tom &amp; Jerry &lt;&quot;Special&quot;&gt;")
	assert.NotContains(t, opf, `<"Special">`)

	titlePage := files["OEBPS/titlepage.xhtml"]
	assert.Contains(t, titlePage, "a &lt; b &amp;&amp; c &gt; d")
}

func TestBuildFillsPlaceholders(t *testing.T) {
	b, err := NewBuilder(t.TempDir())
	require.NoError(t, err)

	result, err := b.Build(metadata.BookRecord{ISBN: "1234567890"}, nil)
	require.NoError(t, err)

	files := readArchive(t, result.Path)
	assert.Contains(t, files["OEBPS/content.opf"], metadata.PlaceholderTitle)
	assert.Contains(t, files["OEBPS/content.opf"], metadata.PlaceholderAuthor)
	assert.True(t, strings.HasPrefix(result.Filename, "author-not-found-title-not-found-"))
}
