// Package memory provides an in-process book.Store. Tests and memory://
// URIs use it in place of a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"bookcatalog/internal/book"
)

var _ book.Store = &Store{}

// Store keeps books in a map with a title index for the uniqueness
// constraint. It is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	collection string
	books      map[string]book.Book
	titles     map[string]string
	now        func() time.Time
}

// New returns an empty store. collection only appears in error details.
func New(collection string) *Store {
	return &Store{
		collection: collection,
		books:      make(map[string]book.Book),
		titles:     make(map[string]string),
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// WithClock replaces the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Insert(_ context.Context, b book.Book) (book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.titles[b.Title]; taken {
		return book.Book{}, book.DuplicateTitle(s.collection, b.Title, nil)
	}
	b.ID = primitive.NewObjectID().Hex()
	b.CreatedAt = s.now()
	b.UpdatedAt = b.CreatedAt
	s.books[b.ID] = b
	s.titles[b.Title] = b.ID
	return b, nil
}

// FindAll returns every book in insertion order.
func (s *Store) FindAll(_ context.Context) ([]book.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]book.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	sortByID(out)
	return out, nil
}

func (s *Store) FindByID(_ context.Context, id string) (book.Book, error) {
	if err := checkID(id); err != nil {
		return book.Book{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[id]
	if !ok {
		return book.Book{}, book.ErrNotFound
	}
	return b, nil
}

// FindByTitle returns at most one book since titles are unique.
func (s *Store) FindByTitle(_ context.Context, title string) ([]book.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.titles[title]
	if !ok {
		return []book.Book{}, nil
	}
	return []book.Book{s.books[id]}, nil
}

func (s *Store) UpdateByID(_ context.Context, id string, u book.Update) (book.Book, error) {
	if err := checkID(id); err != nil {
		return book.Book{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return book.Book{}, book.ErrNotFound
	}
	if u.Title != nil && *u.Title != b.Title {
		if _, taken := s.titles[*u.Title]; taken {
			return book.Book{}, book.DuplicateTitle(s.collection, *u.Title, nil)
		}
		delete(s.titles, b.Title)
		s.titles[*u.Title] = id
	}
	u.Apply(&b)
	b.UpdatedAt = s.now()
	s.books[id] = b
	return b, nil
}

func (s *Store) DeleteByID(_ context.Context, id string) (book.Book, error) {
	if err := checkID(id); err != nil {
		return book.Book{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return book.Book{}, book.ErrNotFound
	}
	delete(s.books, id)
	delete(s.titles, b.Title)
	return b, nil
}

// Close drops every book.
func (s *Store) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books = make(map[string]book.Book)
	s.titles = make(map[string]string)
	return nil
}

// checkID rejects ids a document store could not cast to an ObjectID.
func checkID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return fmt.Errorf("cast to ObjectId failed for value %q: %w", id, err)
	}
	return nil
}

// ObjectID hex strings sort in creation order within a process.
func sortByID(books []book.Book) {
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
}
