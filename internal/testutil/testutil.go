package testutil

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"bookcatalog/internal/book"
	"bookcatalog/internal/store/memory"
)

// NewInput returns a create input with every required field set.
func NewInput(title, author string, year int) book.CreateInput {
	return book.CreateInput{
		Title:         title,
		Author:        author,
		PublishedYear: &year,
	}
}

// NewRepository returns a repository backed by a fresh in-memory store.
// Log output goes to the test log.
func NewRepository(t *testing.T, opts ...book.Option) (*book.Repository, *memory.Store) {
	t.Helper()
	store := memory.New("books")
	log := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
	opts = append([]book.Option{book.WithLogger(log)}, opts...)
	return book.NewRepository(store, opts...), store
}

// RecordEnvelope is a response envelope decoded from its JSON form.
type RecordEnvelope struct {
	Raw  map[string]interface{}
	Body []byte
}

// EncodeEnvelope marshals a response the way callers would serialize it.
func EncodeEnvelope[T any](t *testing.T, resp book.Response[T]) RecordEnvelope {
	t.Helper()
	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	var raw map[string]interface{}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&raw); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return RecordEnvelope{Raw: raw, Body: body}
}

// AssertEnvelopeKey checks the envelope has key with the expected value.
func AssertEnvelopeKey(t interface {
	Errorf(format string, args ...any)
}, env RecordEnvelope, key string, expectedValue interface{}) {
	value, ok := env.Raw[key]
	if !ok {
		t.Errorf("envelope missing key %q", key)
		return
	}
	if value != expectedValue {
		t.Errorf("got %v for key %q, want %v", value, key, expectedValue)
	}
}
