// Package epub assembles placeholder EPUB containers from confirmed book
// records.
package epub

import (
	"archive/zip"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/bookscan/internal/covers"
	"github.com/mrlokans/bookscan/internal/metadata"
)

// Builder writes EPUB artifacts into a configured output directory.
type Builder struct {
	outputDir string
}

// NewBuilder creates a Builder, creating the output directory if needed.
func NewBuilder(outputDir string) (*Builder, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Builder{outputDir: outputDir}, nil
}

// Result describes a generated artifact.
type Result struct {
	Filename string
	Path     string
}

// Build renders the package documents for rec and assembles the container
// at the slug-derived path. An existing file at that path is overwritten.
//
// A cover asset whose final encoding is not JPEG is rejected here and the
// book is packaged as having no cover; the archive hardcodes the cover
// entry to cover.jpeg / image/jpeg.
func (b *Builder) Build(rec metadata.BookRecord, cover *covers.Asset) (*Result, error) {
	rec.FillPlaceholders()

	if cover != nil && !cover.IsJPEG() {
		log.Printf("WARNING: discarding non-JPEG cover (%s) for %q", cover.MIMEType, rec.Title)
		cover = nil
	}
	hasCover := cover != nil

	identifier := uuid.NewString()
	now := time.Now()

	filename := Filename(rec)
	path := filepath.Join(b.outputDir, filename)

	// Not transactional: a crash mid-write leaves a partial file behind.
	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open archive for writing: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	// The mimetype marker must be the first entry and must be stored
	// uncompressed so readers can identify the container from the raw
	// leading bytes.
	header := &zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return nil, fmt.Errorf("create mimetype entry: %w", err)
	}
	if _, err := w.Write([]byte(mimetypeContent)); err != nil {
		return nil, fmt.Errorf("write mimetype entry: %w", err)
	}

	entries := []struct {
		name string
		data []byte
	}{
		{containerPath, []byte(renderContainerXML())},
		{opfPath, []byte(renderOPF(rec, identifier, now, hasCover))},
		{ncxPath, []byte(renderNCX(rec, identifier))},
		{titlePagePath, []byte(renderTitlePage(rec, hasCover))},
		{navPath, []byte(renderNav(rec))},
	}
	if hasCover {
		entries = append(entries, struct {
			name string
			data []byte
		}{coverPath, cover.Bytes})
	}

	for _, entry := range entries {
		w, err := zw.Create(entry.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", entry.name, err)
		}
		if _, err := w.Write(entry.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", entry.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}

	return &Result{Filename: filename, Path: path}, nil
}

// OutputDir returns the configured output directory.
func (b *Builder) OutputDir() string {
	return b.outputDir
}
