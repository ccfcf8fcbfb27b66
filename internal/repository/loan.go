package repository

import (
	"context"
	"errors"
	"time"

	"librarium/internal/database"
	"librarium/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoanRepository owns the copy-lending state machine. Lend and Return each run
// in one transaction that locks the book row and moves books.available with a
// guarded UPDATE, so concurrent calls can never push it outside [0, quantity].
type LoanRepository interface {
	Lend(ctx context.Context, bookID, userID uint, now time.Time) (*models.Book, *models.Loan, error)
	Return(ctx context.Context, bookID, userID uint, now time.Time) (*models.Book, *models.Loan, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Loan, error)
	ListByBook(ctx context.Context, bookID uint) ([]models.Loan, error)
}

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository returns a new LoanRepository implementation.
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func lockBook(tx *gorm.DB, bookID uint) (*models.Book, error) {
	var book models.Book
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&book, bookID).Error; err != nil {
		return nil, mapError(err, "Book", bookID)
	}
	return &book, nil
}

func (r *loanRepository) Lend(ctx context.Context, bookID, userID uint, now time.Time) (*models.Book, *models.Loan, error) {
	var (
		book *models.Book
		loan *models.Loan
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockBook(tx, bookID); err != nil {
			return err
		}

		var user models.User
		if err := tx.Select("id").First(&user, userID).Error; err != nil {
			return mapError(err, "User", userID)
		}

		var open int64
		if err := tx.Model(&models.Loan{}).
			Where("book_id = ? AND user_id = ? AND returned_at IS NULL", bookID, userID).
			Count(&open).Error; err != nil {
			return models.NewInternalError(err)
		}
		if open > 0 {
			return models.NewConflictError("Book already borrowed by this user")
		}

		res := tx.Model(&models.Book{}).
			Where("id = ? AND available > 0", bookID).
			Updates(map[string]interface{}{
				"available":  gorm.Expr("available - 1"),
				"updated_at": now,
			})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewUnavailableError("Book unavailable")
		}

		loan = &models.Loan{BookID: bookID, UserID: userID, BorrowedAt: now}
		if err := tx.Omit(clause.Associations).Create(loan).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return models.NewConflictError("Book already borrowed by this user")
			}
			return models.NewInternalError(err)
		}

		var err error
		book, err = getBook(tx, bookID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return book, loan, nil
}

func (r *loanRepository) Return(ctx context.Context, bookID, userID uint, now time.Time) (*models.Book, *models.Loan, error) {
	var (
		book *models.Book
		loan models.Loan
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockBook(tx, bookID); err != nil {
			return err
		}

		err := tx.Where("book_id = ? AND user_id = ? AND returned_at IS NULL", bookID, userID).
			Order("borrowed_at ASC, id ASC").
			Take(&loan).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundMessage("User never borrowed this book")
		}
		if err != nil {
			return models.NewInternalError(err)
		}

		res := tx.Model(&models.Loan{}).
			Where("id = ? AND returned_at IS NULL", loan.ID).
			Update("returned_at", now)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundMessage("User never borrowed this book")
		}
		returnedAt := now
		loan.ReturnedAt = &returnedAt

		// Capped at quantity: a shrunk quantity may already have absorbed this copy.
		if err := tx.Model(&models.Book{}).
			Where("id = ? AND available < quantity", bookID).
			Updates(map[string]interface{}{
				"available":  gorm.Expr("available + 1"),
				"updated_at": now,
			}).Error; err != nil {
			return models.NewInternalError(err)
		}

		book, err = getBook(tx, bookID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return book, &loan, nil
}

// ListByUser returns the user's loans, newest first, each with its book.
func (r *loanRepository) ListByUser(ctx context.Context, userID uint) ([]models.Loan, error) {
	loans := []models.Loan{}
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("borrowed_at DESC, id DESC").
		Find(&loans).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return loans, nil
}

func (r *loanRepository) ListByBook(ctx context.Context, bookID uint) ([]models.Loan, error) {
	loans := []models.Loan{}
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("borrowed_at DESC, id DESC").
		Find(&loans).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return loans, nil
}
