// Package db opens the process-wide book store connection.
package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bookcatalog/internal/book"
	"bookcatalog/internal/config"
	"bookcatalog/internal/store/memory"
	"bookcatalog/internal/store/mongodb"
	"bookcatalog/internal/store/postgres"
)

// exitDelay lets buffered log output drain before the process exits.
const exitDelay = 100 * time.Millisecond

// ErrMissingURI is returned when no connection URI is configured.
var ErrMissingURI = errors.New(config.EnvDatabaseURI + " is not set")

// Connection owns the store for the lifetime of the process.
type Connection struct {
	Store   book.Store
	Backend string
	closer  func(context.Context) error
}

// Close releases the underlying client. It is safe to call more than once.
func (c *Connection) Close(ctx context.Context) error {
	if c == nil || c.closer == nil {
		return nil
	}
	closer := c.closer
	c.closer = nil
	return closer(ctx)
}

// Open makes a single connection attempt to the backend named by the URI
// scheme: mongodb, mongodb+srv, postgres, postgresql or memory.
func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Connection, error) {
	if cfg.DatabaseURI == "" {
		return nil, ErrMissingURI
	}
	u, err := url.Parse(cfg.DatabaseURI)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %s", config.EnvDatabaseURI, redactURI(err.Error()))
	}

	switch u.Scheme {
	case "mongodb", "mongodb+srv":
		s, err := mongodb.Connect(ctx, mongodb.Options{
			URI:                    cfg.DatabaseURI,
			Database:               databaseName(u, cfg.DatabaseName),
			Collection:             cfg.Collection,
			ServerSelectionTimeout: cfg.SelectionTimeout,
		})
		if err != nil {
			return nil, err
		}
		return &Connection{Store: s, Backend: "mongodb", closer: s.Close}, nil
	case "postgres", "postgresql":
		s, err := postgres.Connect(ctx, postgres.Options{
			DSN:            cfg.DatabaseURI,
			ConnectTimeout: cfg.SelectionTimeout,
			Logger:         log,
		})
		if err != nil {
			return nil, err
		}
		return &Connection{Store: s, Backend: "postgres", closer: s.Close}, nil
	case "memory":
		s := memory.New(cfg.Collection)
		return &Connection{Store: s, Backend: "memory", closer: s.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported %s scheme %q", config.EnvDatabaseURI, u.Scheme)
	}
}

// Bootstrap opens the connection or terminates the process through exit.
// A missing URI exits at once; a failed attempt is logged and exits after a
// short delay. There is no retry.
func Bootstrap(ctx context.Context, cfg config.Config, log zerolog.Logger, exit func(int)) *Connection {
	if exit == nil {
		exit = os.Exit
	}
	if cfg.DatabaseURI == "" {
		log.Error().Err(ErrMissingURI).Msg("missing database configuration")
		exit(1)
		return nil
	}

	conn, err := Open(ctx, cfg, log)
	if err != nil {
		log.Error().
			Str("uri", redactURI(cfg.DatabaseURI)).
			Str("error", redactURI(err.Error())).
			Msg("database connection failed")
		time.Sleep(exitDelay)
		exit(1)
		return nil
	}
	log.Info().Str("backend", conn.Backend).Str("uri", redactURI(cfg.DatabaseURI)).Msg("database connection OK")
	return conn
}

func databaseName(u *url.URL, def string) string {
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return def
}

// redactURI hides the credentials of any URI in s.
func redactURI(s string) string {
	const marker = "://"
	var out strings.Builder
	for {
		start := strings.Index(s, marker)
		if start < 0 {
			out.WriteString(s)
			return out.String()
		}
		start += len(marker)
		out.WriteString(s[:start])
		s = s[start:]

		end := strings.IndexAny(s, "@/ \"'")
		if end >= 0 && s[end] == '@' {
			out.WriteString("***")
			s = s[end:]
		}
	}
}
