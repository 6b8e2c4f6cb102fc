// Package ledger provides append-only plaintext records of generated
// artifacts and significant pipeline events.
package ledger

import (
	"fmt"
	"os"
	"time"
)

// timeFormat matches the bracketed timestamp prefix on every line.
const timeFormat = "2006-01-02 15:04:05"

// Writer appends single-line entries to a plaintext file. The file is
// opened, appended, and closed per write; each line is written with one
// O_APPEND write so concurrent writers interleave at line granularity
// without corrupting a line.
type Writer struct {
	path string
	now  func() time.Time
}

// New creates a ledger writer for path. The file is created on first
// append.
func New(path string) *Writer {
	return &Writer{path: path, now: time.Now}
}

// RecordGeneration appends the ledger line for a successfully generated
// artifact: "[timestamp] ISBN: X, Title: Y".
func (w *Writer) RecordGeneration(isbn, title string) error {
	line := fmt.Sprintf("[%s] ISBN: %s, Title: %s\n", w.now().Format(timeFormat), isbn, title)
	return w.append(line)
}

// RecordEvent appends a free-form event line: "[timestamp] message".
func (w *Writer) RecordEvent(format string, args ...any) error {
	line := fmt.Sprintf("[%s] %s\n", w.now().Format(timeFormat), fmt.Sprintf(format, args...))
	return w.append(line)
}

func (w *Writer) append(line string) error {
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append ledger line: %w", err)
	}
	return nil
}

// Path returns the ledger file path.
func (w *Writer) Path() string {
	return w.path
}

// Journal routes generation lines to the ledger file and free-form event
// lines to a separate journal file.
type Journal struct {
	ledger  *Writer
	journal *Writer
}

func NewJournal(ledgerPath, journalPath string) *Journal {
	return &Journal{
		ledger:  New(ledgerPath),
		journal: New(journalPath),
	}
}

func (j *Journal) RecordGeneration(isbn, title string) error {
	return j.ledger.RecordGeneration(isbn, title)
}

func (j *Journal) RecordEvent(format string, args ...any) error {
	return j.journal.RecordEvent(format, args...)
}
