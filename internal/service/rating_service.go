package service

import (
	"context"

	"librarium/internal/models"
	"librarium/internal/repository"
	"librarium/internal/validation"
)

type RatingService struct {
	ratingRepo repository.RatingRepository
	bookRepo   repository.BookRepository
}

type SetRatingInput struct {
	UserID uint
	BookID uint
	Value  int
}

func NewRatingService(ratingRepo repository.RatingRepository, bookRepo repository.BookRepository) *RatingService {
	return &RatingService{ratingRepo: ratingRepo, bookRepo: bookRepo}
}

// SetRating records the user's score for the book, replacing any earlier one.
func (s *RatingService) SetRating(ctx context.Context, in SetRatingInput) (*models.Rating, error) {
	if err := validation.ValidateRatingValue(in.Value); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.bookRepo.GetByID(ctx, in.BookID); err != nil {
		return nil, err
	}

	rating := &models.Rating{UserID: in.UserID, BookID: in.BookID, Value: in.Value}
	if err := s.ratingRepo.Upsert(ctx, rating); err != nil {
		return nil, err
	}
	return rating, nil
}

// RatingSummary aggregates every rating of one book.
type RatingSummary struct {
	BookID    uint     `json:"book_id"`
	AvgRating *float64 `json:"avg_rating"`
	Count     int64    `json:"count"`
}

// AverageRating is nil for a book nobody has rated.
func (s *RatingService) AverageRating(ctx context.Context, bookID uint) (*float64, error) {
	if _, err := s.bookRepo.GetByID(ctx, bookID); err != nil {
		return nil, err
	}
	return s.ratingRepo.Average(ctx, bookID)
}

func (s *RatingService) Summary(ctx context.Context, bookID uint) (*RatingSummary, error) {
	avg, err := s.AverageRating(ctx, bookID)
	if err != nil {
		return nil, err
	}
	count, err := s.ratingRepo.Count(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return &RatingSummary{BookID: bookID, AvgRating: avg, Count: count}, nil
}
