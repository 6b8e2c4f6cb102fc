package metadata

import (
	"context"
	"log"
	"strings"
)

// maxCandidatesPerSource bounds how many title/author hits each source
// contributes to the disambiguation list.
const maxCandidatesPerSource = 3

// Source is a bibliographic lookup service. LookupISBN returns (nil, nil)
// when the source has no record for the ISBN.
type Source interface {
	Name() string
	LookupISBN(ctx context.Context, isbn string) (*BookRecord, error)
	SearchTitleAuthor(ctx context.Context, title, author string, limit int) ([]BookRecord, error)
}

// Resolver consolidates answers from multiple bibliographic sources into a
// single record or a disambiguation candidate set. Sources are called
// sequentially in a fixed priority order; a failed source is treated the
// same as a source with no hits.
type Resolver struct {
	primary   Source
	secondary Source
}

// NewResolver creates a Resolver. primary's cover takes precedence during
// consolidation even though secondary wins most other overlapping fields.
func NewResolver(primary, secondary Source) *Resolver {
	return &Resolver{
		primary:   primary,
		secondary: secondary,
	}
}

// ResolveISBN looks up an ISBN against both sources and consolidates the
// answers. Outcome is NotFound only when neither source has the book.
func (r *Resolver) ResolveISBN(ctx context.Context, isbn string) Resolution {
	primaryRec := r.lookup(ctx, r.primary, isbn)
	secondaryRec := r.lookup(ctx, r.secondary, isbn)

	if primaryRec == nil && secondaryRec == nil {
		return Resolution{Outcome: OutcomeNotFound}
	}

	rec := consolidate(primaryRec, secondaryRec)
	if rec.ISBN == PlaceholderValue {
		if normalized := NormalizeISBN(isbn); normalized != "" {
			rec.ISBN = normalized
		}
	}
	return Resolution{Outcome: OutcomeFound, Record: &rec}
}

// ResolveTitleAuthor searches both sources by free-text title/author and
// concatenates their candidates without merging, capped at
// maxCandidatesPerSource each.
func (r *Resolver) ResolveTitleAuthor(ctx context.Context, title, author string) Resolution {
	var candidates []BookRecord
	for _, src := range []Source{r.primary, r.secondary} {
		hits, err := src.SearchTitleAuthor(ctx, title, author, maxCandidatesPerSource)
		if err != nil {
			log.Printf("WARNING: %s title search failed: %v", src.Name(), err)
			continue
		}
		if len(hits) > maxCandidatesPerSource {
			hits = hits[:maxCandidatesPerSource]
		}
		candidates = append(candidates, hits...)
	}

	for i := range candidates {
		candidates[i].FillPlaceholders()
	}

	switch len(candidates) {
	case 0:
		return Resolution{Outcome: OutcomeNotFound}
	case 1:
		return Resolution{Outcome: OutcomeFound, Record: &candidates[0]}
	default:
		return Resolution{Outcome: OutcomeAmbiguous, Candidates: candidates}
	}
}

// ResolveCoverGuess prepends a complete vision guess to whatever the
// title/author search finds for it. The guess itself is never merged with
// the search results.
func (r *Resolver) ResolveCoverGuess(ctx context.Context, guess CoverGuess, coverRef string) Resolution {
	guessRec := BookRecord{
		Title:    guess.Title,
		Author:   guess.Author,
		CoverRef: coverRef,
		Source:   "Gemini Vision",
	}
	guessRec.FillPlaceholders()

	searched := r.ResolveTitleAuthor(ctx, guess.Title, guess.Author)

	candidates := []BookRecord{guessRec}
	switch searched.Outcome {
	case OutcomeFound:
		candidates = append(candidates, *searched.Record)
	case OutcomeAmbiguous:
		candidates = append(candidates, searched.Candidates...)
	}

	if len(candidates) == 1 {
		return Resolution{Outcome: OutcomeFound, Record: &candidates[0]}
	}
	return Resolution{Outcome: OutcomeAmbiguous, Candidates: candidates}
}

func (r *Resolver) lookup(ctx context.Context, src Source, isbn string) *BookRecord {
	rec, err := src.LookupISBN(ctx, isbn)
	if err != nil {
		// A failed source degrades to "absent"; resolution continues
		// with whatever the other source returns.
		log.Printf("WARNING: %s ISBN lookup failed: %v", src.Name(), err)
		return nil
	}
	return rec
}

// consolidate builds one record from the primary and secondary answers,
// applied in that order over an all-placeholder base.
//
// Per-field rule: a source's non-empty value replaces the accumulated one
// when the accumulated value is still a placeholder, when the field is the
// cover, or when the field is anything other than the description. The
// later-applied source therefore wins every field except description,
// which keeps the first non-placeholder value.
//
// A final pass re-selects the primary source's cover whenever it produced
// one; this takes precedence over the generic rule. Do not "fix" this
// asymmetry: artifact contents and tests depend on it.
func consolidate(primary, secondary *BookRecord) BookRecord {
	out := NewPlaceholderRecord()

	var sources []string
	for _, rec := range []*BookRecord{primary, secondary} {
		if rec == nil {
			continue
		}
		sources = append(sources, rec.Source)
		applyFields(&out, rec)
	}

	if primary != nil && primary.HasCover() {
		out.CoverRef = primary.CoverRef
	}

	out.Source = strings.Join(sources, ", ")
	return out
}

func applyFields(out *BookRecord, rec *BookRecord) {
	overwrite := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}

	overwrite(&out.ISBN, rec.ISBN)
	overwrite(&out.Title, rec.Title)
	overwrite(&out.Subtitle, rec.Subtitle)
	overwrite(&out.Author, rec.Author)
	overwrite(&out.Publisher, rec.Publisher)
	overwrite(&out.PublishedDate, rec.PublishedDate)

	if rec.HasCover() {
		out.CoverRef = rec.CoverRef
	}

	// Description never overwrites a value that is already filled in.
	if rec.Description != "" && IsPlaceholder(out.Description) {
		out.Description = rec.Description
	}
}
