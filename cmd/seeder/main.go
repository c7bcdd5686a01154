// cmd/seeder/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/unclebandit/drive-signin/internal/config"
	"github.com/unclebandit/drive-signin/internal/db"
	"github.com/unclebandit/drive-signin/internal/repository"
)

// The seeder creates the accounts table and imports the refresh tokens from
// REFRESH_TOKENS or, when that is empty, from the TOML config file.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	flags := config.Flags("seeder")
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.LoadConfig(flags)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	repo := &repository.CredentialRepository{DB: conn}
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("failed to create schema: %v", err)
	}
	fmt.Println("Schema ready")

	tokens := repository.CleanTokens(cfg.RefreshTokens)
	if len(tokens) == 0 {
		file := &repository.FileCredentialRepository{Path: cfg.ConfigFile}
		if tokens, err = file.LoadRefreshTokens(ctx); err != nil {
			log.Fatalf("failed to read %s: %v", cfg.ConfigFile, err)
		}
	}
	if len(tokens) == 0 {
		fmt.Println("No refresh tokens to import")
		return
	}

	if err := repo.SaveRefreshTokens(ctx, tokens); err != nil {
		log.Fatalf("failed to import refresh tokens: %v", err)
	}
	fmt.Printf("Seeded: %d accounts\n", len(tokens))
	fmt.Println("Database seeding completed successfully!")
}
