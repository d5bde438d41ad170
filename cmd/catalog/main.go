package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"bookcatalog/internal/book"
	"bookcatalog/internal/config"
	"bookcatalog/internal/db"
	"bookcatalog/internal/events"
	"bookcatalog/internal/platform/logging"
)

func main() {
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx := context.Background()
	conn := db.Bootstrap(ctx, cfg, log, os.Exit)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := conn.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("close database connection")
		}
	}()

	opts := []book.Option{book.WithLogger(log)}
	if publisher := dialEvents(cfg, log); publisher != nil {
		defer publisher.Close()
		opts = append(opts, book.WithNotifier(publisher))
	}
	repo := book.NewRepository(conn.Store, opts...)

	runSample(ctx, repo, os.Stdout)
}

// dialEvents returns nil when events are disabled or the broker is unreachable.
func dialEvents(cfg config.Config, log zerolog.Logger) *events.Publisher {
	if cfg.EventsURL == "" {
		return nil
	}
	publisher, err := events.Dial(cfg.EventsURL, cfg.EventsExchange)
	if err != nil {
		log.Warn().Err(err).Msg("book events disabled")
		return nil
	}
	return publisher
}

// runSample creates a book and deletes id "3", printing both envelopes.
func runSample(ctx context.Context, repo *book.Repository, out io.Writer) {
	year := 1987
	available := true
	created := repo.Create(ctx, book.CreateInput{
		Title:         "Chanchos voladores",
		Author:        "Rocio",
		PublishedYear: &year,
		Available:     &available,
	})
	printEnvelope(out, created)

	printEnvelope(out, repo.DeleteByID(ctx, "3"))
}

func printEnvelope[T any](out io.Writer, resp book.Response[T]) {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp)
}
