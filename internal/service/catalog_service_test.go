package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"librarium/internal/models"
	"librarium/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intRef(v int) *int { return &v }

func TestCatalogService_CreateBook_Validation(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   CreateBookInput
	}{
		{"blank title", CreateBookInput{Title: "  ", Quantity: 1}},
		{"future year", CreateBookInput{Title: "Tomorrow", YearPublished: intRef(2026), Quantity: 1}},
		{"long description", CreateBookInput{Title: "Wordy", Description: strings.Repeat("d", 251)}},
		{"negative quantity", CreateBookInput{Title: "Debt", Quantity: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := NewCatalogService(noopBookRepo(), nil, nil)
			svc.now = fixedClock(now)
			_, err := svc.CreateBook(context.Background(), tt.in)
			assertValidationError(t, err)
		})
	}
}

func TestCatalogService_CreateBook_ShelvesEveryCopy(t *testing.T) {
	t.Parallel()

	repo := noopBookRepo()
	var (
		stored           *models.Book
		authors, tagsIDs []uint
	)
	repo.createFn = func(_ context.Context, b *models.Book, a, tg []uint) error {
		b.ID = 7
		stored, authors, tagsIDs = b, a, tg
		return nil
	}
	svc := NewCatalogService(repo, nil, nil)

	_, err := svc.CreateBook(context.Background(), CreateBookInput{
		Title:         " Dune ",
		YearPublished: intRef(1965),
		Quantity:      4,
		AuthorIDs:     []uint{1},
		TagIDs:        []uint{2, 3},
	})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Dune", stored.Title)
	assert.Equal(t, 4, stored.Available)
	assert.Equal(t, []uint{1}, authors)
	assert.Equal(t, []uint{2, 3}, tagsIDs)
}

func TestCatalogService_UpdateBook_ValidatesPresentFields(t *testing.T) {
	t.Parallel()

	repo := noopBookRepo()
	called := false
	repo.updateFn = func(_ context.Context, id uint, _ models.BookUpdate) (*models.Book, error) {
		called = true
		return &models.Book{ID: id}, nil
	}
	svc := NewCatalogService(repo, nil, nil)

	_, err := svc.UpdateBook(context.Background(), 1, models.BookUpdate{Quantity: intRef(-2)})
	assertValidationError(t, err)
	assert.False(t, called)

	_, err = svc.UpdateBook(context.Background(), 1, models.BookUpdate{Quantity: intRef(3)})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestCatalogService_ListBooksPassesFilter(t *testing.T) {
	t.Parallel()

	repo := noopBookRepo()
	var got repository.BookFilter
	repo.listFn = func(_ context.Context, f repository.BookFilter) ([]models.Book, error) {
		got = f
		return []models.Book{}, nil
	}
	svc := NewCatalogService(repo, nil, nil)

	_, err := svc.ListBooks(context.Background(), ListBooksInput{Query: "dune", Limit: 5, Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, "dune", got.Query)
	assert.Equal(t, repository.Page{Limit: 5, Offset: 10}, got.Page)
}

func TestCatalogService_AuthorAndTagValidation(t *testing.T) {
	t.Parallel()

	svc := NewCatalogService(noopBookRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.CreateAuthor(ctx, " ")
	assertValidationError(t, err)
	_, err = svc.RenameAuthor(ctx, 1, strings.Repeat("n", 101))
	assertValidationError(t, err)
	_, err = svc.CreateTag(ctx, "")
	assertValidationError(t, err)
	_, err = svc.UpdateTag(ctx, 1, strings.Repeat("t", 101))
	assertValidationError(t, err)
}
