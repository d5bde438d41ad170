// Package postgres implements book.Store on a Postgres table. Each row holds
// one book document; the table is created by the embedded goose migration.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"bookcatalog/internal/book"
)

const (
	table           = "books"
	uniqueViolation = "23505"
	columns         = "id::text, title, author, published_year, available, created_at, updated_at"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ book.Store = &Store{}

// Options configures Connect.
type Options struct {
	DSN            string
	ConnectTimeout time.Duration
	Logger         zerolog.Logger
}

type Store struct {
	db *pgxpool.Pool
}

// NewStore wraps an existing pool. The books table must already exist.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Connect opens a pool, pings it within opts.ConnectTimeout and applies the
// embedded migrations.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	cfg.ConnConfig.ConnectTimeout = opts.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if err := migrate(ctx, pool, opts.Logger); err != nil {
		pool.Close()
		return nil, err
	}
	return NewStore(pool), nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{log: log})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("postgres: goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// gooseLogger routes goose output through zerolog.
type gooseLogger struct {
	log zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Debug().Str("component", "goose").Msgf(strings.TrimSpace(format), v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Error().Str("component", "goose").Msgf(strings.TrimSpace(format), v...)
}

// Ping checks the database is reachable.
func (r *Store) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Close closes the pool.
func (r *Store) Close(context.Context) error {
	r.db.Close()
	return nil
}

func (r *Store) Insert(ctx context.Context, b book.Book) (book.Book, error) {
	const sql = `
		INSERT INTO books (title, author, published_year, available)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + columns

	created, err := scanBook(r.db.QueryRow(ctx, sql, b.Title, b.Author, b.PublishedYear, b.Available))
	if err != nil {
		return book.Book{}, withCode(err, b.Title)
	}
	return created, nil
}

func (r *Store) FindAll(ctx context.Context) ([]book.Book, error) {
	const query = `SELECT ` + columns + ` FROM books ORDER BY created_at, id`
	return r.query(ctx, query)
}

func (r *Store) FindByID(ctx context.Context, id string) (book.Book, error) {
	const query = `SELECT ` + columns + ` FROM books WHERE id = $1`
	uid, err := parseID(id)
	if err != nil {
		return book.Book{}, err
	}
	b, err := scanBook(r.db.QueryRow(ctx, query, uid))
	if err != nil {
		return book.Book{}, notFoundOr(err)
	}
	return b, nil
}

func (r *Store) FindByTitle(ctx context.Context, title string) ([]book.Book, error) {
	const query = `SELECT ` + columns + ` FROM books WHERE title = $1 ORDER BY created_at, id`
	return r.query(ctx, query, title)
}

func (r *Store) UpdateByID(ctx context.Context, id string, u book.Update) (book.Book, error) {
	uid, err := parseID(id)
	if err != nil {
		return book.Book{}, err
	}

	sql, args := updateSQL(uid, u)
	b, err := scanBook(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		title := ""
		if u.Title != nil {
			title = *u.Title
		}
		return book.Book{}, notFoundOr(withCode(err, title))
	}
	return b, nil
}

func (r *Store) DeleteByID(ctx context.Context, id string) (book.Book, error) {
	const sql = `DELETE FROM books WHERE id = $1 RETURNING ` + columns
	uid, err := parseID(id)
	if err != nil {
		return book.Book{}, err
	}
	b, err := scanBook(r.db.QueryRow(ctx, sql, uid))
	if err != nil {
		return book.Book{}, notFoundOr(err)
	}
	return b, nil
}

func (r *Store) query(ctx context.Context, sql string, args ...any) ([]book.Book, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (book.Book, error) {
		return scanBook(row)
	})
}

// updateSQL builds an UPDATE touching only the fields set in u.
func updateSQL(id uuid.UUID, u book.Update) (string, []any) {
	sets := []string{"updated_at = now()"}
	args := []any{}
	argn := 1

	if u.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", argn))
		args = append(args, *u.Title)
		argn++
	}
	if u.Author != nil {
		sets = append(sets, fmt.Sprintf("author = $%d", argn))
		args = append(args, *u.Author)
		argn++
	}
	if u.PublishedYear != nil {
		sets = append(sets, fmt.Sprintf("published_year = $%d", argn))
		args = append(args, *u.PublishedYear)
		argn++
	}
	if u.Available != nil {
		sets = append(sets, fmt.Sprintf("available = $%d", argn))
		args = append(args, *u.Available)
		argn++
	}

	sql := fmt.Sprintf("UPDATE books SET %s WHERE id = $%d RETURNING %s", strings.Join(sets, ", "), argn, columns)
	return sql, append(args, id)
}

func scanBook(row pgx.Row) (book.Book, error) {
	var b book.Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.PublishedYear, &b.Available, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid input syntax for type uuid: %q: %w", id, err)
	}
	return uid, nil
}

func notFoundOr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return book.ErrNotFound
	}
	return err
}

// withCode maps a unique violation on title to the duplicate key error all
// stores report.
func withCode(err error, title string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return book.DuplicateTitle(table, title, err)
	}
	return err
}
