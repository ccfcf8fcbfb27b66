package repository

import (
	"context"

	"librarium/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RatingRepository defines persistence operations for ratings.
type RatingRepository interface {
	// Upsert inserts the rating or, when the (user, book) pair already has
	// one, overwrites its value. rating is refreshed from the stored row.
	Upsert(ctx context.Context, rating *models.Rating) error
	Average(ctx context.Context, bookID uint) (*float64, error)
	Count(ctx context.Context, bookID uint) (int64, error)
}

type ratingRepository struct {
	db *gorm.DB
}

// NewRatingRepository returns a new RatingRepository implementation.
func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Upsert(ctx context.Context, rating *models.Rating) error {
	db := r.db.WithContext(ctx)
	err := db.Omit("User", "Book").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(rating).Error
	if err != nil {
		return models.NewInternalError(err)
	}

	// On conflict the returned id is not reliable across drivers; reload the stored row.
	var stored models.Rating
	if err := db.Where("user_id = ? AND book_id = ?", rating.UserID, rating.BookID).Take(&stored).Error; err != nil {
		return mapError(err, "Rating", rating.BookID)
	}
	*rating = stored
	return nil
}

// Average returns the mean rating of the book, or nil when it has no ratings.
func (r *ratingRepository) Average(ctx context.Context, bookID uint) (*float64, error) {
	var avg *float64
	err := r.db.WithContext(ctx).Model(&models.Rating{}).
		Select("CAST(AVG(value) AS DOUBLE PRECISION)").
		Where("book_id = ?", bookID).
		Scan(&avg).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return avg, nil
}

func (r *ratingRepository) Count(ctx context.Context, bookID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Rating{}).Where("book_id = ?", bookID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
