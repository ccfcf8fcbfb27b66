package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"librarium/internal/models"
	"librarium/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertAppErrorCode asserts that err is an AppError carrying code.
func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeForbidden)
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// bookRepoStub is a stub for repository.BookRepository.
type bookRepoStub struct {
	listFn      func(context.Context, repository.BookFilter) ([]models.Book, error)
	getByIDFn   func(context.Context, uint) (*models.Book, error)
	getDetailFn func(context.Context, uint) (*models.Book, error)
	createFn    func(context.Context, *models.Book, []uint, []uint) error
	updateFn    func(context.Context, uint, models.BookUpdate) (*models.Book, error)
	deleteFn    func(context.Context, uint) error
}

func (s *bookRepoStub) List(ctx context.Context, f repository.BookFilter) ([]models.Book, error) {
	return s.listFn(ctx, f)
}
func (s *bookRepoStub) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	return s.getByIDFn(ctx, id)
}
func (s *bookRepoStub) GetDetail(ctx context.Context, id uint) (*models.Book, error) {
	return s.getDetailFn(ctx, id)
}
func (s *bookRepoStub) Create(ctx context.Context, b *models.Book, authorIDs, tagIDs []uint) error {
	return s.createFn(ctx, b, authorIDs, tagIDs)
}
func (s *bookRepoStub) Update(ctx context.Context, id uint, u models.BookUpdate) (*models.Book, error) {
	return s.updateFn(ctx, id, u)
}
func (s *bookRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopBookRepo() *bookRepoStub {
	return &bookRepoStub{
		listFn:      func(_ context.Context, _ repository.BookFilter) ([]models.Book, error) { return nil, nil },
		getByIDFn:   func(_ context.Context, id uint) (*models.Book, error) { return &models.Book{ID: id}, nil },
		getDetailFn: func(_ context.Context, id uint) (*models.Book, error) { return &models.Book{ID: id}, nil },
		createFn:    func(_ context.Context, _ *models.Book, _, _ []uint) error { return nil },
		updateFn:    func(_ context.Context, id uint, _ models.BookUpdate) (*models.Book, error) { return &models.Book{ID: id}, nil },
		deleteFn:    func(_ context.Context, _ uint) error { return nil },
	}
}

func missingBookRepo() *bookRepoStub {
	repo := noopBookRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Book, error) {
		return nil, models.NewNotFoundError("Book", id)
	}
	return repo
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByBookFn func(context.Context, uint) ([]models.Comment, error)
	updateFn     func(context.Context, *models.Comment) error
	deleteFn     func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByBook(ctx context.Context, bookID uint) ([]models.Comment, error) {
	return s.listByBookFn(ctx, bookID)
}
func (s *commentRepoStub) UpdateContent(ctx context.Context, comment *models.Comment) error {
	return s.updateFn(ctx, comment)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:    func(_ context.Context, _ uint) (*models.Comment, error) { return &models.Comment{}, nil },
		listByBookFn: func(_ context.Context, _ uint) ([]models.Comment, error) { return nil, nil },
		updateFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
	}
}
