package server

import (
	"librarium/internal/middleware"
	"librarium/internal/models"
	"librarium/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ratingRequest struct {
	Value *int `json:"value"`
}

// SetRating handles POST /library/:bookId/rating
// @Summary Rate a book
// @Description A second rating by the same user replaces the first
// @Tags library
// @Accept json
// @Produce json
// @Param bookId path int true "Book ID"
// @Param request body ratingRequest true "Rating between 0 and 5"
// @Success 201 {object} models.Rating
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /library/{bookId}/rating [post]
func (s *Server) SetRating(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	bookID, err := s.parseID(c, "bookId")
	if err != nil {
		return nil
	}

	var req ratingRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Value == nil {
		return respondError(c, models.NewValidationError("Rating value is required"))
	}

	rating, err := s.ratingService.SetRating(c.UserContext(), service.SetRatingInput{
		UserID: userID,
		BookID: bookID,
		Value:  *req.Value,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rating)
}

// GetRating handles GET /library/:bookId/rating
// @Summary Rating summary of a book
// @Tags library
// @Produce json
// @Param bookId path int true "Book ID"
// @Success 200 {object} service.RatingSummary
// @Failure 404 {object} models.ErrorResponse
// @Router /library/{bookId}/rating [get]
func (s *Server) GetRating(c *fiber.Ctx) error {
	bookID, err := s.parseID(c, "bookId")
	if err != nil {
		return nil
	}
	summary, err := s.ratingService.Summary(c.UserContext(), bookID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}
