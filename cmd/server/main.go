package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/medhub/gallery-backend/internal/app"
	"github.com/medhub/gallery-backend/internal/config"
)

func main() {
	// Local development reads a .env file; deployed environments set real
	// environment variables.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	e, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("server setup failed: %v", err)
	}

	log.Printf("Starting gallery backend on :%s (%s)", cfg.Port, cfg.Env)
	log.Fatal(e.Start(":" + cfg.Port))
}
