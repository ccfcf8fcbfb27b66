package service

import (
	"context"
	"time"

	"librarium/internal/models"
	"librarium/internal/repository"
	"librarium/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	bookRepo    repository.BookRepository
	now         func() time.Time
}

type CreateCommentInput struct {
	UserID  uint
	BookID  uint
	Content string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	IsAdmin   bool
	CommentID uint
}

func NewCommentService(commentRepo repository.CommentRepository, bookRepo repository.BookRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		bookRepo:    bookRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := validation.ValidateCommentContent(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.bookRepo.GetByID(ctx, in.BookID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content: in.Content,
		UserID:  in.UserID,
		BookID:  in.BookID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) ListComments(ctx context.Context, bookID uint) ([]models.Comment, error) {
	if _, err := s.bookRepo.GetByID(ctx, bookID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByBook(ctx, bookID)
}

// UpdateComment replaces the content of the caller's own comment and stamps EditedAt.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}
	if err := validation.ValidateCommentContent(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	edited := s.now()
	comment.Content = in.Content
	comment.EditedAt = &edited
	if err := s.commentRepo.UpdateContent(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

// DeleteComment removes a comment owned by the caller; admins may remove any.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != in.UserID && !in.IsAdmin {
		return nil, models.NewForbiddenError("You can only delete your own comments")
	}
	if err := s.commentRepo.Delete(ctx, in.CommentID); err != nil {
		return nil, err
	}
	return comment, nil
}
