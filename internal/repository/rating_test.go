package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"librarium/internal/models"
	"librarium/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingRepository_UpsertKeepsOneRow(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repo := NewRatingRepository(db)
	ctx := context.Background()

	reader := testutil.CreateUser(t, db, "reader", false)
	book := testutil.CreateBook(t, db, "Dune", 1)

	avg, err := repo.Average(ctx, book.ID)
	require.NoError(t, err)
	assert.Nil(t, avg)

	first := &models.Rating{UserID: reader.ID, BookID: book.ID, Value: 2}
	require.NoError(t, repo.Upsert(ctx, first))
	second := &models.Rating{UserID: reader.ID, BookID: book.ID, Value: 5}
	require.NoError(t, repo.Upsert(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Value)

	n, err := repo.Count(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	avg, err = repo.Average(ctx, book.ID)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 5.0, *avg, 0.0001)
}

func TestRatingRepository_ConcurrentDoubleSubmit(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repo := NewRatingRepository(db)
	ctx := context.Background()

	reader := testutil.CreateUser(t, db, "reader", false)
	book := testutil.CreateBook(t, db, "Dune", 1)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Upsert(ctx, &models.Rating{UserID: reader.ID, BookID: book.ID, Value: i % 6})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, fmt.Sprintf("submission %d", i))
	}
	n, err := repo.Count(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
