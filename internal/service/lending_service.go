package service

import (
	"context"
	"log/slog"
	"time"

	"librarium/internal/middleware"
	"librarium/internal/models"
	"librarium/internal/observability"
	"librarium/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// LendingService moves physical copies between the shelf and borrowers.
type LendingService struct {
	loanRepo repository.LoanRepository
	bookRepo repository.BookRepository
	now      func() time.Time
}

func NewLendingService(loanRepo repository.LoanRepository, bookRepo repository.BookRepository) *LendingService {
	return &LendingService{
		loanRepo: loanRepo,
		bookRepo: bookRepo,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Lend checks out one copy of the book to the user and returns the updated book.
func (s *LendingService) Lend(ctx context.Context, bookID, userID uint) (book *models.Book, err error) {
	ctx, span := observability.StartSpan(ctx, "lending", "lend",
		attribute.Int64("book.id", int64(bookID)),
		attribute.Int64("user.id", int64(userID)),
	)
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackLending("lend")()

	book, _, err = s.loanRepo.Lend(ctx, bookID, userID, s.now())
	s.record(ctx, "lend", bookID, userID, err)
	if err != nil {
		return nil, err
	}
	return book, nil
}

// Return closes the user's open loan of the book and puts the copy back.
func (s *LendingService) Return(ctx context.Context, bookID, userID uint) (book *models.Book, err error) {
	ctx, span := observability.StartSpan(ctx, "lending", "return",
		attribute.Int64("book.id", int64(bookID)),
		attribute.Int64("user.id", int64(userID)),
	)
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackLending("return")()

	book, _, err = s.loanRepo.Return(ctx, bookID, userID, s.now())
	s.record(ctx, "return", bookID, userID, err)
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (s *LendingService) UserLoans(ctx context.Context, userID uint) ([]models.Loan, error) {
	return s.loanRepo.ListByUser(ctx, userID)
}

func (s *LendingService) BookLoans(ctx context.Context, bookID uint) ([]models.Loan, error) {
	if _, err := s.bookRepo.GetByID(ctx, bookID); err != nil {
		return nil, err
	}
	return s.loanRepo.ListByBook(ctx, bookID)
}

func (s *LendingService) record(ctx context.Context, op string, bookID, userID uint, err error) {
	outcome := outcomeOf(err)
	observability.RecordLending(op, outcome)

	attrs := []any{
		slog.String("operation", op),
		slog.Uint64("book_id", uint64(bookID)),
		slog.Uint64("lending_user_id", uint64(userID)),
		slog.String("outcome", outcome),
	}
	if models.ErrorCode(err) == models.CodeInternal {
		middleware.Logger.ErrorContext(ctx, "lending transaction failed", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	middleware.Logger.DebugContext(ctx, "lending transaction", attrs...)
}
