package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"bookcatalog/internal/book"
	"bookcatalog/internal/config"
	"bookcatalog/internal/db"
	"bookcatalog/internal/platform/logging"
)

func main() {
	count := flag.Int("count", 100, "Number of books to create")
	flag.Parse()

	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx := context.Background()
	conn := db.Bootstrap(ctx, cfg, log, os.Exit)
	defer conn.Close(ctx)

	repo := book.NewRepository(conn.Store, book.WithLogger(log))

	log.Info().Int("count", *count).Msg("generating books")
	created, failed := seed(ctx, repo, *count, rand.New(rand.NewSource(rand.Int63())))
	log.Info().Int("created", created).Int("failed", failed).Msg("seed finished")

	total := repo.List(ctx)
	if books, err := total.Result(); err == nil {
		log.Info().Int("total", len(books)).Msg("total books in catalog")
	}
}

var (
	authors = []string{"Ursula K. Le Guin", "Italo Calvino", "Octavia Butler", "Jorge Luis Borges", "Chinua Achebe", "Wislawa Szymborska", "Haruki Murakami"}
	words   = []string{
		"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
		"Love", "War", "Peace", "Science", "Nature", "Technology", "History", "Future",
		"Past", "Present", "Reality", "Imagination", "Wisdom", "Life", "Death",
		"Light", "Darkness", "World", "Universe", "Time", "Space", "Mind", "Soul",
	}
)

// seed creates count generated books and reports how many succeeded and failed.
func seed(ctx context.Context, repo *book.Repository, count int, rnd *rand.Rand) (created, failed int) {
	for i := 0; i < count; i++ {
		year := 1950 + rnd.Intn(75)
		available := rnd.Intn(5) > 0
		resp := repo.Create(ctx, book.CreateInput{
			Title:         fmt.Sprintf("Book Title %d - %s", i+1, words[rnd.Intn(len(words))]),
			Author:        authors[rnd.Intn(len(authors))],
			PublishedYear: &year,
			Available:     &available,
		})
		if resp.Success {
			created++
		} else {
			failed++
		}
	}
	return created, failed
}
