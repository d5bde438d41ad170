package book

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DuplicateKeyCode is the storage code reported for uniqueness violations.
const DuplicateKeyCode = 11000

var (
	// ErrNotFound is returned when a book is not found.
	ErrNotFound = errors.New("book not found")
	// ErrDuplicateTitle is wrapped by stores when a title is already taken.
	ErrDuplicateTitle = errors.New("duplicate key: title already exists")
)

// StorageError carries the numeric code a store attached to a failure.
type StorageError struct {
	Code int
	Err  error
}

func (e *StorageError) Error() string { return e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

// DuplicateTitle builds the error stores return for a title that is already used.
func DuplicateTitle(collection, title string, cause error) error {
	err := fmt.Errorf("%w: E%d duplicate key error collection: %s index: title_1 dup key: { title: %q }",
		ErrDuplicateTitle, DuplicateKeyCode, collection, title)
	if cause != nil {
		err = fmt.Errorf("%w (%v)", err, cause)
	}
	return &StorageError{Code: DuplicateKeyCode, Err: err}
}

// ValidationError reports required fields missing from a create input.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(e.Err, &fieldErrs) {
		return "book validation failed: " + e.Err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s: path `%s` is %s", fe.Field(), fe.Field(), fe.Tag()))
	}
	return "book validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

// OperationError is the failure branch of a Response.
type OperationError struct {
	Message    string
	Details    string
	StatusCode int
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.Message, e.Details, e.StatusCode)
}

// statusFor maps a store failure to the status surfaced in the envelope.
func statusFor(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	var storageErr *StorageError
	if errors.As(err, &storageErr) && storageErr.Code != 0 {
		return storageErr.Code
	}
	return http.StatusInternalServerError
}
