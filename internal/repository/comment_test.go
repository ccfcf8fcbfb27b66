package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"librarium/internal/models"
	"librarium/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_Create(t *testing.T) {
	db, mock := testutil.MockDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	comment := &models.Comment{Content: "Great read", BookID: 1, UserID: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "comments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, comment)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), comment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_Lifecycle(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "author", false)
	book := testutil.CreateBook(t, db, "Dune", 1)

	comment := &models.Comment{Content: "first take", UserID: author.ID, BookID: book.ID}
	require.NoError(t, repo.Create(ctx, comment))

	got, err := repo.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "author", got.Username)
	assert.Nil(t, got.EditedAt)

	edited := time.Now().UTC()
	got.Content = "second take"
	got.EditedAt = &edited
	require.NoError(t, repo.UpdateContent(ctx, got))

	list, err := repo.ListByBook(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "second take", list[0].Content)
	assert.NotNil(t, list[0].EditedAt)

	require.NoError(t, repo.Delete(ctx, comment.ID))
	_, err = repo.GetByID(ctx, comment.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(repo.Delete(ctx, comment.ID)))
}
