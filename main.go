package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/mrlokans/bookscan/internal/config"
	"github.com/mrlokans/bookscan/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	cfg := config.NewConfig()
	entrypoint.Run(cfg, Version)
}
