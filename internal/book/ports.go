package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=book

// Store defines the contract for book document storage.
// Stores assign IDs and timestamps and enforce title uniqueness.
type Store interface {
	Insert(ctx context.Context, b Book) (Book, error)
	FindAll(ctx context.Context) ([]Book, error)
	FindByID(ctx context.Context, id string) (Book, error)
	FindByTitle(ctx context.Context, title string) ([]Book, error)
	UpdateByID(ctx context.Context, id string, u Update) (Book, error)
	DeleteByID(ctx context.Context, id string) (Book, error)
}

// ChangeKind names a mutation applied to a book.
type ChangeKind string

const (
	Created ChangeKind = "created"
	Updated ChangeKind = "updated"
	Deleted ChangeKind = "deleted"
)

// Notifier receives the books changed by successful mutations.
type Notifier interface {
	BookChanged(ctx context.Context, kind ChangeKind, b Book) error
}
