package book

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

const (
	msgCreated      = "book created successfully"
	msgCreateFailed = "failed to create book"
	msgListed       = "books retrieved successfully"
	msgListFailed   = "failed to list books"
	msgFound        = "book found"
	msgGetFailed    = "failed to get book"
	msgTitleFound   = "books found"
	msgTitleFailed  = "failed to find books by title"
	msgUpdated      = "book updated successfully"
	msgUpdateFailed = "failed to update book"
	msgDeleted      = "book deleted successfully"
	msgDeleteFailed = "failed to delete book"
)

// Repository exposes the book operations. Every operation returns a Response
// and never an error; store failures become failure envelopes.
type Repository struct {
	store    Store
	notifier Notifier
	log      zerolog.Logger
}

type Option func(*Repository)

// WithLogger sets the logger used for operation outcomes.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Repository) { r.log = l }
}

// WithNotifier publishes successful mutations to n.
func WithNotifier(n Notifier) Option {
	return func(r *Repository) { r.notifier = n }
}

// NewRepository creates a new book repository backed by store.
func NewRepository(store Store, opts ...Option) *Repository {
	r := &Repository{store: store, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create inserts a new book. Available defaults to true.
func (r *Repository) Create(ctx context.Context, in CreateInput) (resp Response[Book]) {
	defer guard(r.log, "create", msgCreateFailed, &resp)

	doc, err := newBook(in)
	if err != nil {
		r.logFailure("create", err)
		return fail[Book](msgCreateFailed, err)
	}
	created, err := r.store.Insert(ctx, doc)
	if err != nil {
		r.logFailure("create", err)
		return fail[Book](msgCreateFailed, err)
	}
	r.log.Debug().Str("op", "create").Str("id", created.ID).Msg("book created")
	r.notify(ctx, Created, created)
	return succeed(msgCreated, created)
}

// List returns every book. An empty catalog is a success with an empty list.
func (r *Repository) List(ctx context.Context) (resp Response[[]Book]) {
	defer guard(r.log, "list", msgListFailed, &resp)

	books, err := r.store.FindAll(ctx)
	if err != nil {
		r.logFailure("list", err)
		return fail[[]Book](msgListFailed, err)
	}
	if books == nil {
		books = []Book{}
	}
	r.log.Debug().Str("op", "list").Int("count", len(books)).Msg("books listed")
	return succeed(msgListed, books)
}

// GetByID returns the book with the given id.
func (r *Repository) GetByID(ctx context.Context, id string) (resp Response[Book]) {
	defer guard(r.log, "get", msgGetFailed, &resp)

	b, err := r.store.FindByID(ctx, id)
	if err != nil {
		r.logFailure("get", err)
		return fail[Book](msgGetFailed, err)
	}
	return succeed(msgFound, b)
}

// GetByTitle returns the books whose title matches exactly. No match is a
// not-found failure.
func (r *Repository) GetByTitle(ctx context.Context, title string) (resp Response[[]Book]) {
	defer guard(r.log, "get_by_title", msgTitleFailed, &resp)

	books, err := r.store.FindByTitle(ctx, title)
	if err != nil {
		r.logFailure("get_by_title", err)
		return fail[[]Book](msgTitleFailed, err)
	}
	if len(books) == 0 {
		err := fmt.Errorf("%w: no books with title %q", ErrNotFound, title)
		r.logFailure("get_by_title", err)
		return fail[[]Book](msgTitleFailed, err)
	}
	return succeed(msgTitleFound, books)
}

// UpdateByID applies the set fields of u and returns the updated book.
func (r *Repository) UpdateByID(ctx context.Context, id string, u Update) (resp Response[Book]) {
	defer guard(r.log, "update", msgUpdateFailed, &resp)

	updated, err := r.store.UpdateByID(ctx, id, u)
	if err != nil {
		r.logFailure("update", err)
		return fail[Book](msgUpdateFailed, err)
	}
	r.log.Debug().Str("op", "update").Str("id", updated.ID).Msg("book updated")
	r.notify(ctx, Updated, updated)
	return succeed(msgUpdated, updated)
}

// DeleteByID removes the book and returns it. Deleting a missing book is a
// not-found failure.
func (r *Repository) DeleteByID(ctx context.Context, id string) (resp Response[Book]) {
	defer guard(r.log, "delete", msgDeleteFailed, &resp)

	deleted, err := r.store.DeleteByID(ctx, id)
	if err != nil {
		r.logFailure("delete", err)
		return fail[Book](msgDeleteFailed, err)
	}
	r.log.Debug().Str("op", "delete").Str("id", deleted.ID).Msg("book deleted")
	r.notify(ctx, Deleted, deleted)
	return succeed(msgDeleted, deleted)
}

func (r *Repository) logFailure(op string, err error) {
	ev := r.log.Error()
	if errors.Is(err, ErrNotFound) {
		ev = r.log.Warn()
	}
	ev.Str("op", op).Int("status", statusFor(err)).Err(err).Msg("book operation failed")
}

func (r *Repository) notify(ctx context.Context, kind ChangeKind, b Book) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.BookChanged(ctx, kind, b); err != nil {
		r.log.Warn().Str("kind", string(kind)).Str("id", b.ID).Err(err).Msg("book change not published")
	}
}

// guard must be deferred directly so recover sees the panic.
func guard[T any](log zerolog.Logger, op, message string, resp *Response[T]) {
	v := recover()
	if v == nil {
		return
	}
	err := recovered(v)
	log.Error().Str("op", op).Interface("panic", v).Msg("book operation panicked")
	*resp = fail[T](message, err)
}
