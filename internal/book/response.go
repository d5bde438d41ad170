package book

import (
	"errors"
	"fmt"
	"net/http"
)

// Response is the envelope every Repository operation returns.
// Exactly one of Data and Error is set.
type Response[T any] struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    *T           `json:"data"`
	Error   *ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Details    string `json:"details"`
	StatusCode int    `json:"statusCode"`
}

func succeed[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    &data,
	}
}

func fail[T any](message string, err error) Response[T] {
	return Response[T]{
		Success: false,
		Message: message,
		Error: &ErrorDetail{
			Details:    err.Error(),
			StatusCode: statusFor(err),
		},
	}
}

// Result unwraps the envelope. The error is an *OperationError when the
// operation failed.
func (r Response[T]) Result() (T, error) {
	var zero T
	if !r.Success {
		opErr := &OperationError{Message: r.Message, StatusCode: http.StatusInternalServerError}
		if r.Error != nil {
			opErr.Details = r.Error.Details
			opErr.StatusCode = r.Error.StatusCode
		}
		return zero, opErr
	}
	if r.Data == nil {
		return zero, nil
	}
	return *r.Data, nil
}

// StatusCode returns the failure status, or 0 for a successful response.
func (r Response[T]) StatusCode() int {
	if r.Error == nil {
		return 0
	}
	return r.Error.StatusCode
}

// errUnknown is reported when a recovered panic value is not an error.
var errUnknown = errors.New("unknown error")

// recovered turns a value recovered from a panic into an error.
func recovered(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return errUnknown
}
