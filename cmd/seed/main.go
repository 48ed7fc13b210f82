// Package main provides a tool to seed the database with demo data.
//
// It creates a handful of clients with tags so the API and landing pages
// have something to show during development.
//
// Usage:
//
//	DATA_PATH=~/tagnest go run ./cmd/seed
//	DATA_PATH=~/tagnest go run ./cmd/seed -clients 5 -tags 3
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tagnestapp/tagnest-server/internal/auth"
	"github.com/tagnestapp/tagnest-server/internal/domain"
	"github.com/tagnestapp/tagnest-server/internal/id"
	"github.com/tagnestapp/tagnest-server/internal/store/sqlite"
)

const seedPassword = "Demo-Passw0rd!"

var (
	clientCount = flag.Int("clients", 3, "Number of demo clients to create")
	tagCount    = flag.Int("tags", 2, "Number of tags per client")
)

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/tagnest")
	}

	dbPath := filepath.Join(dataPath, "tagnest.db")
	fmt.Printf("Opening database at: %s\n", dbPath)

	st, err := sqlite.Open(dbPath, slog.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()

	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	for c := 0; c < *clientCount; c++ {
		name := fmt.Sprintf("demo-%d", c+1)

		clientID, err := id.Generate("client")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate client ID: %v\n", err)
			os.Exit(1)
		}

		now := time.Now()
		client := &domain.Client{
			ID:           clientID,
			Name:         name,
			Email:        fmt.Sprintf("%s@example.com", name),
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := st.CreateClient(ctx, client); err != nil {
			fmt.Printf("Skipping %s: %v\n", name, err)
			continue
		}

		for n := 0; n < *tagCount; n++ {
			tagID, err := id.Generate("tag")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to generate tag ID: %v\n", err)
				os.Exit(1)
			}
			slug, err := id.GenerateSlug()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to generate slug: %v\n", err)
				os.Exit(1)
			}

			tag := &domain.Tag{
				ID:           tagID,
				Slug:         slug,
				ClientID:     client.ID,
				Name:         fmt.Sprintf("%s item %d", name, n+1),
				Phone:        "+1 555 0100",
				Instructions: "If found, please get in touch. Thanks!",
				CreatedAt:    now,
				UpdatedAt:    now,
			}

			if err := st.CreateTag(ctx, tag); err != nil {
				fmt.Printf("Failed to create tag for %s: %v\n", name, err)
				continue
			}

			fmt.Printf("Created tag %s (slug %s) for %s\n", tag.Name, tag.Slug, name)
		}

		fmt.Printf("Created client %s (password %s)\n", name, seedPassword)
	}

	fmt.Println("Done.")
}
