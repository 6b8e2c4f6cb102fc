package config

// Default paths and model names
const (
	// DefaultDatabasePath is the default path for the generation history database
	DefaultDatabasePath = "./bookscan.db"

	// DefaultOutputDir is where generated EPUB files are written
	DefaultOutputDir = "./epubs"

	// DefaultLedgerPath records one line per generated artifact
	DefaultLedgerPath = "./generated_books.txt"

	// DefaultJournalPath records one line per significant pipeline event
	DefaultJournalPath = "./bookscan_debug.log"

	// DefaultGeminiModel is the vision model used for cover identification
	DefaultGeminiModel = "gemini-1.5-flash"
)
