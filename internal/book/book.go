package book

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Book represents a book entity.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	PublishedYear int       `json:"publishedYear"`
	Available     bool      `json:"available"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CreateInput holds the fields accepted when creating a book.
// Available defaults to true when nil.
type CreateInput struct {
	Title         string `json:"title" validate:"required"`
	Author        string `json:"author" validate:"required"`
	PublishedYear *int   `json:"publishedYear" validate:"required"`
	Available     *bool  `json:"available,omitempty"`
}

// Update is a partial field set. Nil fields are left unchanged.
type Update struct {
	Title         *string `json:"title,omitempty"`
	Author        *string `json:"author,omitempty"`
	PublishedYear *int    `json:"publishedYear,omitempty"`
	Available     *bool   `json:"available,omitempty"`
}

// IsEmpty reports whether the update sets no field.
func (u Update) IsEmpty() bool {
	return u.Title == nil && u.Author == nil && u.PublishedYear == nil && u.Available == nil
}

// Apply copies the set fields of u onto b.
func (u Update) Apply(b *Book) {
	if u.Title != nil {
		b.Title = *u.Title
	}
	if u.Author != nil {
		b.Author = *u.Author
	}
	if u.PublishedYear != nil {
		b.PublishedYear = *u.PublishedYear
	}
	if u.Available != nil {
		b.Available = *u.Available
	}
}

var schema = newSchema()

func newSchema() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// newBook checks the required fields of in and builds the document to insert.
// ID and timestamps are left to the store.
func newBook(in CreateInput) (Book, error) {
	if err := schema.Struct(in); err != nil {
		return Book{}, &ValidationError{Err: err}
	}
	available := true
	if in.Available != nil {
		available = *in.Available
	}
	return Book{
		Title:         in.Title,
		Author:        in.Author,
		PublishedYear: *in.PublishedYear,
		Available:     available,
	}, nil
}
