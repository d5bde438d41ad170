package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcatalog/internal/book"
	"bookcatalog/internal/config"
	"bookcatalog/internal/platform/logging"
	"bookcatalog/internal/store/memory"
)

func TestRunSample(t *testing.T) {
	repo := book.NewRepository(memory.New("books"))
	var out bytes.Buffer

	runSample(context.Background(), repo, &out)

	dec := json.NewDecoder(&out)
	var created book.Response[book.Book]
	require.NoError(t, dec.Decode(&created))
	assert.True(t, created.Success)
	assert.Equal(t, "Chanchos voladores", created.Data.Title)
	assert.Equal(t, 1987, created.Data.PublishedYear)

	var deleted book.Response[book.Book]
	require.NoError(t, dec.Decode(&deleted))
	assert.False(t, deleted.Success)
	assert.Equal(t, http.StatusInternalServerError, deleted.Error.StatusCode)
}

func TestRunSample_SecondRunHitsUniqueTitle(t *testing.T) {
	repo := book.NewRepository(memory.New("books"))
	runSample(context.Background(), repo, io.Discard)

	var out bytes.Buffer
	runSample(context.Background(), repo, &out)

	var created book.Response[book.Book]
	require.NoError(t, json.NewDecoder(&out).Decode(&created))
	assert.False(t, created.Success)
	assert.Equal(t, book.DuplicateKeyCode, created.Error.StatusCode)
}

func TestDialEvents_Disabled(t *testing.T) {
	assert.Nil(t, dialEvents(config.Config{}, logging.NewWithWriter(io.Discard, "info")))
}
