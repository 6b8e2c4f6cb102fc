// Package workflow sequences resolution, cover acquisition, and packaging
// into the supported request flows.
package workflow

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/mrlokans/bookscan/internal/covers"
	"github.com/mrlokans/bookscan/internal/entities"
	"github.com/mrlokans/bookscan/internal/epub"
	"github.com/mrlokans/bookscan/internal/metadata"
)

// ErrNotFound is returned when no source produced a usable record.
var ErrNotFound = errors.New("no matching books found")

// Resolver consolidates bibliographic sources.
type Resolver interface {
	ResolveISBN(ctx context.Context, isbn string) metadata.Resolution
	ResolveTitleAuthor(ctx context.Context, title, author string) metadata.Resolution
	ResolveCoverGuess(ctx context.Context, guess metadata.CoverGuess, coverRef string) metadata.Resolution
}

// Vision identifies a book from a cover photograph.
type Vision interface {
	IdentifyCover(ctx context.Context, image []byte, format string) (*metadata.CoverGuess, error)
}

// CoverFetcher turns a cover reference into a normalized asset.
type CoverFetcher interface {
	Acquire(ctx context.Context, coverRef string) (*covers.Asset, error)
}

// Packager assembles the EPUB artifact.
type Packager interface {
	Build(rec metadata.BookRecord, cover *covers.Asset) (*epub.Result, error)
}

// Ledger appends plaintext generation and event lines.
type Ledger interface {
	RecordGeneration(isbn, title string) error
	RecordEvent(format string, args ...any) error
}

// HistoryStore persists generation history rows.
type HistoryStore interface {
	RecordGeneration(gen *entities.Generation) error
}

// Controller glues the pipeline stages into the supported request flows.
// Each call handles one request to completion; there is no cross-request
// state and no retry.
type Controller struct {
	resolver Resolver
	vision   Vision
	fetcher  CoverFetcher
	packager Packager
	ledger   Ledger
	history  HistoryStore
}

// NewController creates a workflow controller. vision and history may be
// nil when the corresponding capability is not configured.
func NewController(resolver Resolver, vision Vision, fetcher CoverFetcher, packager Packager, ledger Ledger, history HistoryStore) *Controller {
	return &Controller{
		resolver: resolver,
		vision:   vision,
		fetcher:  fetcher,
		packager: packager,
		ledger:   ledger,
		history:  history,
	}
}

// FlowResult is the outcome of a resolution flow. State tells the caller
// what to do next: Confirming carries a single record to confirm,
// Selecting carries candidates to pick from, ManualFallback signals that
// the caller should collect a manual title/author query.
type FlowResult struct {
	State        State
	Record       *metadata.BookRecord
	Candidates   []metadata.BookRecord
	FallbackISBN string
}

// GenerateResult describes a successfully generated artifact.
type GenerateResult struct {
	Filename string
	Path     string
	Record   metadata.BookRecord
}

// SearchByISBN resolves a scanned ISBN. A NotFound outcome reports the
// normalized ISBN back so the manual-search form can be prefilled.
func (c *Controller) SearchByISBN(ctx context.Context, isbn string) (*FlowResult, error) {
	f := newFlow()
	f.to(StateResolving)

	res := c.resolver.ResolveISBN(ctx, isbn)
	if res.Outcome == metadata.OutcomeNotFound {
		f.to(StateManualFallback)
		c.event("ISBN %s not found in any source", isbn)

		fallback := metadata.NormalizeISBN(isbn)
		if fallback == "" {
			fallback = isbn
		}
		return &FlowResult{State: StateManualFallback, FallbackISBN: fallback}, nil
	}

	f.to(StateConfirming)
	c.event("ISBN %s resolved via %s", isbn, res.Record.Source)
	return &FlowResult{State: StateConfirming, Record: res.Record}, nil
}

// ManualSearch resolves a free-text title/author query.
func (c *Controller) ManualSearch(ctx context.Context, title, author string) (*FlowResult, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("title is required")
	}

	f := newFlow()
	f.to(StateResolving)

	res := c.resolver.ResolveTitleAuthor(ctx, title, author)
	switch res.Outcome {
	case metadata.OutcomeFound:
		f.to(StateConfirming)
		return &FlowResult{State: StateConfirming, Record: res.Record}, nil
	case metadata.OutcomeAmbiguous:
		f.to(StateSelecting)
		return &FlowResult{State: StateSelecting, Candidates: res.Candidates}, nil
	default:
		f.to(StateIdle)
		c.event("manual search %q / %q found nothing", title, author)
		return nil, ErrNotFound
	}
}

// CoverSearch identifies a book from a cover photograph supplied as a
// data-URI. An incomplete guess (missing title or author) is routed
// straight to confirmation: there is nothing to search with.
func (c *Controller) CoverSearch(ctx context.Context, imageDataURI string) (*FlowResult, error) {
	if c.vision == nil {
		return nil, fmt.Errorf("cover identification is not configured")
	}

	image, format, err := decodeImageDataURI(imageDataURI)
	if err != nil {
		return nil, err
	}

	f := newFlow()
	f.to(StateResolving)

	guess, err := c.vision.IdentifyCover(ctx, image, format)
	if err != nil {
		f.to(StateIdle)
		return nil, fmt.Errorf("identify cover: %w", err)
	}

	if !guess.Complete() {
		f.to(StateConfirming)
		c.event("vision guess incomplete (title=%q author=%q), skipping lookup", guess.Title, guess.Author)

		rec := metadata.BookRecord{
			Title:    guess.Title,
			Author:   guess.Author,
			CoverRef: imageDataURI,
			Source:   "Gemini Vision",
		}
		rec.FillPlaceholders()
		return &FlowResult{State: StateConfirming, Record: &rec}, nil
	}

	res := c.resolver.ResolveCoverGuess(ctx, *guess, imageDataURI)
	if res.Outcome == metadata.OutcomeAmbiguous {
		f.to(StateSelecting)
		return &FlowResult{State: StateSelecting, Candidates: res.Candidates}, nil
	}

	f.to(StateConfirming)
	return &FlowResult{State: StateConfirming, Record: res.Record}, nil
}

// ConfirmAndGenerate packages a confirmed (possibly user-edited) record
// into an EPUB artifact and records it in the ledger and history store.
// A failed cover download degrades to a coverless artifact rather than
// failing the generation.
func (c *Controller) ConfirmAndGenerate(ctx context.Context, rec metadata.BookRecord) (*GenerateResult, error) {
	rec.FillPlaceholders()

	f := &flow{state: StateConfirming}
	f.to(StateGenerating)

	var cover *covers.Asset
	if rec.HasCover() {
		asset, err := c.fetcher.Acquire(ctx, rec.CoverRef)
		if err != nil {
			log.Printf("WARNING: cover acquisition failed for %q: %v", rec.Title, err)
			c.event("cover acquisition failed for %q: %v", rec.Title, err)
		} else {
			cover = asset
		}
	}

	result, err := c.packager.Build(rec, cover)
	if err != nil {
		f.to(StateIdle)
		return nil, fmt.Errorf("build package: %w", err)
	}

	if err := c.ledger.RecordGeneration(rec.ISBN, rec.Title); err != nil {
		// The artifact exists; a ledger miss is logged, not fatal.
		log.Printf("WARNING: ledger append failed: %v", err)
	}

	if c.history != nil {
		err := c.history.RecordGeneration(&entities.Generation{
			ISBN:      rec.ISBN,
			Title:     rec.Title,
			Author:    rec.Author,
			Publisher: rec.Publisher,
			Source:    rec.Source,
			Filename:  result.Filename,
		})
		if err != nil {
			log.Printf("WARNING: history insert failed: %v", err)
		}
	}

	f.to(StateIdle)
	c.event("generated %s", result.Filename)

	return &GenerateResult{
		Filename: result.Filename,
		Path:     result.Path,
		Record:   rec,
	}, nil
}

func (c *Controller) event(format string, args ...any) {
	if err := c.ledger.RecordEvent(format, args...); err != nil {
		log.Printf("WARNING: journal append failed: %v", err)
	}
}

// decodeImageDataURI splits a data-URI image into its raw bytes and the
// image subtype ("jpeg", "png", ...).
func decodeImageDataURI(uri string) ([]byte, string, error) {
	header, payload, found := strings.Cut(uri, ",")
	if !found || !strings.HasPrefix(header, "data:image/") {
		return nil, "", fmt.Errorf("expected an image data-URI")
	}

	format := strings.TrimPrefix(header, "data:image/")
	if idx := strings.IndexByte(format, ';'); idx >= 0 {
		format = format[:idx]
	}

	raw, err := decodeBase64(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode image data: %w", err)
	}
	return raw, format, nil
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
