package server

import (
	"librarium/internal/middleware"
	"librarium/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Content string `json:"content"`
}

// CreateComment handles POST /library/:bookId/comment
// @Summary Comment on a book
// @Tags library
// @Accept json
// @Produce json
// @Param bookId path int true "Book ID"
// @Param request body commentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /library/{bookId}/comment [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	bookID, err := s.parseID(c, "bookId")
	if err != nil {
		return nil
	}

	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:  userID,
		BookID:  bookID,
		Content: req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetComments handles GET /library/:bookId/comment
// @Summary Comments of a book
// @Tags library
// @Produce json
// @Param bookId path int true "Book ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /library/{bookId}/comment [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	bookID, err := s.parseID(c, "bookId")
	if err != nil {
		return nil
	}
	comments, err := s.commentService.ListComments(c.UserContext(), bookID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// UpdateComment handles PATCH /library/comment/:commentId
// @Summary Edit own comment
// @Tags library
// @Accept json
// @Produce json
// @Param commentId path int true "Comment ID"
// @Param request body commentRequest true "Comment"
// @Success 200 {object} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /library/comment/{commentId} [patch]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    userID,
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /library/comment/:commentId
// @Summary Delete a comment
// @Description Allowed for the comment's author and for admins
// @Tags library
// @Produce json
// @Param commentId path int true "Comment ID"
// @Success 200 {object} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /library/comment/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	comment, err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    userID,
		IsAdmin:   middleware.CurrentIsAdmin(c),
		CommentID: commentID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}
