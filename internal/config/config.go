package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Output
		Database
		Sources
		Gemini
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Output struct {
		Dir         string // Directory for generated EPUB files
		LedgerPath  string // Append-only record of generated artifacts
		JournalPath string // Append-only debug journal
	}
	Database struct {
		Path string
	}
	Sources struct {
		GoogleBooksAPIKey string
		RequestTimeout    time.Duration // Per upstream call, connect plus response
	}
	Gemini struct {
		APIKey string
		Model  string
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8189)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("ledger_path", DefaultLedgerPath)
	v.SetDefault("journal_path", DefaultJournalPath)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("source_request_timeout", "10s")
	v.SetDefault("gemini_model", DefaultGeminiModel)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Output: Output{
			Dir:         v.GetString("OUTPUT_DIR"),
			LedgerPath:  v.GetString("LEDGER_PATH"),
			JournalPath: v.GetString("JOURNAL_PATH"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Sources: Sources{
			GoogleBooksAPIKey: v.GetString("GOOGLE_BOOKS_API_KEY"),
			RequestTimeout:    v.GetDuration("SOURCE_REQUEST_TIMEOUT"),
		},
		Gemini: Gemini{
			APIKey: v.GetString("GEMINI_API_KEY"),
			Model:  v.GetString("GEMINI_MODEL"),
		},
	}
}
