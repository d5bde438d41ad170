package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcatalog/internal/book"
)

func TestStore_InsertAssignsIDAndTimestamps(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := New("books").WithClock(func() time.Time { return fixed })

	b, err := s.Insert(context.Background(), book.Book{Title: "T1", Author: "A1", PublishedYear: 2000, Available: true})

	require.NoError(t, err)
	assert.Len(t, b.ID, 24)
	assert.Equal(t, fixed, b.CreatedAt)
	assert.Equal(t, fixed, b.UpdatedAt)
}

func TestStore_TitleIsUnique(t *testing.T) {
	s := New("books")
	ctx := context.Background()

	_, err := s.Insert(ctx, book.Book{Title: "T1"})
	require.NoError(t, err)

	_, err = s.Insert(ctx, book.Book{Title: "T1"})
	require.ErrorIs(t, err, book.ErrDuplicateTitle)
	var storageErr *book.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, book.DuplicateKeyCode, storageErr.Code)
	assert.Contains(t, err.Error(), "books index: title_1")
}

func TestStore_ConcurrentInsertsOfOneTitle(t *testing.T) {
	s := New("books")
	ctx := context.Background()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Insert(ctx, book.Book{Title: "race"}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	all, err := s.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_FindAllKeepsInsertionOrder(t *testing.T) {
	s := New("books")
	ctx := context.Background()
	for _, title := range []string{"c", "a", "b"} {
		_, err := s.Insert(ctx, book.Book{Title: title})
		require.NoError(t, err)
	}

	all, err := s.FindAll(ctx)

	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Title)
	assert.Equal(t, "a", all[1].Title)
	assert.Equal(t, "b", all[2].Title)
}

func TestStore_Lookups(t *testing.T) {
	s := New("books")
	ctx := context.Background()
	created, err := s.Insert(ctx, book.Book{Title: "T1"})
	require.NoError(t, err)

	t.Run("by id", func(t *testing.T) {
		got, err := s.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := s.FindByID(ctx, "000000000000000000000000")
		assert.ErrorIs(t, err, book.ErrNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		_, err := s.FindByID(ctx, "3")
		require.Error(t, err)
		assert.NotErrorIs(t, err, book.ErrNotFound)
		assert.Contains(t, err.Error(), "cast to ObjectId failed")
	})

	t.Run("by title", func(t *testing.T) {
		got, err := s.FindByTitle(ctx, "T1")
		require.NoError(t, err)
		assert.Len(t, got, 1)

		got, err = s.FindByTitle(ctx, "t1")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestStore_UpdateByID(t *testing.T) {
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := New("books").WithClock(func() time.Time { return clock })
	ctx := context.Background()
	first, err := s.Insert(ctx, book.Book{Title: "T1", Author: "A1", PublishedYear: 2000, Available: true})
	require.NoError(t, err)
	_, err = s.Insert(ctx, book.Book{Title: "T2"})
	require.NoError(t, err)

	clock = clock.Add(time.Minute)
	title := "X"
	updated, err := s.UpdateByID(ctx, first.ID, book.Update{Title: &title})

	require.NoError(t, err)
	assert.Equal(t, "X", updated.Title)
	assert.Equal(t, "A1", updated.Author)
	assert.Equal(t, 2000, updated.PublishedYear)
	assert.True(t, updated.Available)
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)
	assert.Equal(t, clock, updated.UpdatedAt)

	byOld, err := s.FindByTitle(ctx, "T1")
	require.NoError(t, err)
	assert.Empty(t, byOld)

	taken := "T2"
	_, err = s.UpdateByID(ctx, first.ID, book.Update{Title: &taken})
	assert.ErrorIs(t, err, book.ErrDuplicateTitle)

	_, err = s.UpdateByID(ctx, "000000000000000000000000", book.Update{Title: &title})
	assert.ErrorIs(t, err, book.ErrNotFound)
}

func TestStore_DeleteByID(t *testing.T) {
	s := New("books")
	ctx := context.Background()
	created, err := s.Insert(ctx, book.Book{Title: "T1"})
	require.NoError(t, err)

	deleted, err := s.DeleteByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, deleted)

	_, err = s.DeleteByID(ctx, created.ID)
	assert.ErrorIs(t, err, book.ErrNotFound)

	_, err = s.Insert(ctx, book.Book{Title: "T1"})
	assert.NoError(t, err, "deleting a book frees its title")
}
