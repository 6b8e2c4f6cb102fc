package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookscan/internal/config"
	"github.com/mrlokans/bookscan/internal/covers"
	"github.com/mrlokans/bookscan/internal/database"
	"github.com/mrlokans/bookscan/internal/epub"
	http_controllers "github.com/mrlokans/bookscan/internal/http"
	"github.com/mrlokans/bookscan/internal/ledger"
	"github.com/mrlokans/bookscan/internal/metadata"
	"github.com/mrlokans/bookscan/internal/workflow"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting BookScan v%s", version)

	// Initialize the generation history database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Package builder creates the output directory on startup; failing
	// here beats failing on the first confirmed generation.
	builder, err := epub.NewBuilder(cfg.Output.Dir)
	if err != nil {
		log.Fatalf("Failed to prepare output directory %s: %v", cfg.Output.Dir, err)
	}
	log.Printf("Writing generated EPUBs to %s", cfg.Output.Dir)

	// Bibliographic sources: Google Books first, OpenLibrary second
	if cfg.Sources.GoogleBooksAPIKey == "" {
		log.Printf("WARNING: Google Books API key is not set. Requests will run unauthenticated with lower rate limits. Set 'GOOGLE_BOOKS_API_KEY' to remove this limit.")
	}
	googleBooks := metadata.NewGoogleBooksClient(cfg.Sources.GoogleBooksAPIKey, cfg.Sources.RequestTimeout)
	openLibrary := metadata.NewOpenLibraryClient(cfg.Sources.RequestTimeout)
	resolver := metadata.NewResolver(googleBooks, openLibrary)

	// Cover identification is optional; without a key the endpoint
	// rejects gemini_cover_search requests with a clear message.
	var vision *metadata.GeminiVisionClient
	if cfg.Gemini.APIKey != "" {
		vision, err = metadata.NewGeminiVisionClient(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			log.Fatalf("Failed to initialize Gemini client: %v", err)
		}
		log.Printf("Cover identification enabled (model %s)", cfg.Gemini.Model)
	} else {
		log.Printf("WARNING: Gemini API key is not set. Cover photo identification will be disabled. Set 'GEMINI_API_KEY' environment variable to enable.")
	}

	fetcher := covers.NewFetcher(cfg.Sources.RequestTimeout)
	journal := ledger.NewJournal(cfg.Output.LedgerPath, cfg.Output.JournalPath)

	var visionPort workflow.Vision
	if vision != nil {
		visionPort = vision
	}
	flow := workflow.NewController(resolver, visionPort, fetcher, builder, journal, db)

	routerCfg := http_controllers.RouterConfig{
		Flow:         flow,
		HistoryStore: db,
		Database:     db,
		OutputDir:    cfg.Output.Dir,
		Version:      version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if vision != nil {
			if err := vision.Close(); err != nil {
				log.Printf("Error closing Gemini client: %v", err)
			}
		}
	}

	Serve(router, cfg, onShutdown)
}
