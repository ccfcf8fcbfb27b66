package repository

import (
	"context"
	"testing"

	"librarium/internal/models"
	"librarium/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorRepository_ListSearchAndDelete(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repo := NewAuthorRepository(db)
	books := NewBookRepository(db)
	ctx := context.Background()

	for _, name := range []string{"Octavia Butler", "Isaac Asimov", "Ann Leckie"} {
		require.NoError(t, repo.Create(ctx, &models.Author{Name: name}))
	}

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Ann Leckie", all[0].Name)

	matched, err := repo.List(ctx, "BUTLER")
	require.NoError(t, err)
	require.Len(t, matched, 1)

	renamed, err := repo.Rename(ctx, matched[0].ID, "Octavia E. Butler")
	require.NoError(t, err)
	assert.Equal(t, "Octavia E. Butler", renamed.Name)

	book := &models.Book{Title: "Kindred", Quantity: 1, Available: 1}
	require.NoError(t, books.Create(ctx, book, []uint{renamed.ID}, nil))

	require.NoError(t, repo.Delete(ctx, renamed.ID))
	got, err := books.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Authors)

	_, err = repo.Rename(ctx, renamed.ID, "ghost")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestTagRepository_CRUD(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	scifi := &models.Tag{Content: "sci-fi"}
	require.NoError(t, repo.Create(ctx, scifi))
	require.NoError(t, repo.Create(ctx, &models.Tag{Content: "horror"}))

	tags, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "sci-fi", tags[0].Content)

	updated, err := repo.UpdateContent(ctx, scifi.ID, "science fiction")
	require.NoError(t, err)
	assert.Equal(t, "science fiction", updated.Content)

	require.NoError(t, repo.Delete(ctx, scifi.ID))
	_, err = repo.GetByID(ctx, scifi.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}
