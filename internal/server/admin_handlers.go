package server

import (
	"log/slog"

	"librarium/internal/middleware"
	"librarium/internal/models"
	"librarium/internal/notifications"
	"librarium/internal/service"

	"github.com/gofiber/fiber/v2"
)

type authorRequest struct {
	Name string `json:"name"`
}

type tagRequest struct {
	Content string `json:"content"`
}

// AdminListBooks handles GET /library/admin
// @Summary List books (admin)
// @Tags admin
// @Produce json
// @Param filter_str query string false "Substring of title or description"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Book
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /library/admin [get]
func (s *Server) AdminListBooks(c *fiber.Ctx) error {
	return s.GetBooks(c)
}

// AdminCreateBook handles POST /library/admin
// @Summary Create book
// @Tags admin
// @Accept json
// @Produce json
// @Param request body service.CreateBookInput true "Book"
// @Success 201 {object} models.Book
// @Failure 401 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /library/admin [post]
func (s *Server) AdminCreateBook(c *fiber.Ctx) error {
	var req service.CreateBookInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	book, err := s.catalogService.CreateBook(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(book)
}

// AdminGetBook handles GET /library/admin/:bookId
// @Summary Book detail (admin)
// @Tags admin
// @Produce json
// @Param bookId path int true "Book ID"
// @Success 200 {object} models.Book
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /library/admin/{bookId} [get]
func (s *Server) AdminGetBook(c *fiber.Ctx) error {
	return s.GetBook(c)
}

// AdminUpdateBook handles PATCH /library/admin/:bookId
// @Summary Update book
// @Description Only the fields present in the body change; authors_id and tags_id replace the existing links
// @Tags admin
// @Accept json
// @Produce json
// @Param bookId path int true "Book ID"
// @Param request body models.BookUpdate true "Fields to update"
// @Success 200 {object} models.Book
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /library/admin/{bookId} [patch]
func (s *Server) AdminUpdateBook(c *fiber.Ctx) error {
	id, err := s.parseID(c, "bookId")
	if err != nil {
		return nil
	}
	var req models.BookUpdate
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	book, err := s.catalogService.UpdateBook(c.UserContext(), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(book)
}

// AdminDeleteBook handles DELETE /library/admin/:bookId
// @Summary Delete book
// @Tags admin
// @Produce json
// @Param bookId path int true "Book ID"
// @Success 200 {object} object{success=bool}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /library/admin/{bookId} [delete]
func (s *Server) AdminDeleteBook(c *fiber.Ctx) error {
	id, err := s.parseID(c, "bookId")
	if err != nil {
		return nil
	}
	if err := s.catalogService.DeleteBook(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// GiveBook handles POST /library/admin/:bookId/give
// @Summary Lend a copy
// @Tags admin
// @Produce json
// @Param bookId path int true "Book ID"
// @Param user_id query int true "Borrower ID"
// @Success 200 {object} models.Book
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /library/admin/{bookId}/give [post]
func (s *Server) GiveBook(c *fiber.Ctx) error {
	bookID, err := s.parseID(c, "bookId")
	if err != nil {
		return nil
	}
	userID, err := s.parseQueryID(c, "user_id")
	if err != nil {
		return nil
	}
	book, err := s.lendingService.Lend(c.UserContext(), bookID, userID)
	if err != nil {
		return respondError(c, err)
	}
	s.publishLoanEvent(c, notifications.EventBookLent, book, userID)
	return c.JSON(book)
}

// TakeBookBack handles POST /library/admin/:bookId/get
// @Summary Return a copy
// @Tags admin
// @Produce json
// @Param bookId path int true "Book ID"
// @Param user_id query int true "Borrower ID"
// @Success 200 {object} models.Book
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /library/admin/{bookId}/get [post]
func (s *Server) TakeBookBack(c *fiber.Ctx) error {
	bookID, err := s.parseID(c, "bookId")
	if err != nil {
		return nil
	}
	userID, err := s.parseQueryID(c, "user_id")
	if err != nil {
		return nil
	}
	book, err := s.lendingService.Return(c.UserContext(), bookID, userID)
	if err != nil {
		return respondError(c, err)
	}
	s.publishLoanEvent(c, notifications.EventBookReturned, book, userID)
	return c.JSON(book)
}

// GetBookLoans handles GET /library/admin/:bookId/loans
// @Summary Loan history of a book
// @Tags admin
// @Produce json
// @Param bookId path int true "Book ID"
// @Success 200 {array} models.Loan
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /library/admin/{bookId}/loans [get]
func (s *Server) GetBookLoans(c *fiber.Ctx) error {
	bookID, err := s.parseID(c, "bookId")
	if err != nil {
		return nil
	}
	loans, err := s.lendingService.BookLoans(c.UserContext(), bookID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(loans)
}

// AdminCreateAuthor handles POST /library/admin/author
// @Summary Create author
// @Tags admin
// @Accept json
// @Produce json
// @Param request body authorRequest true "Author"
// @Success 201 {object} models.Author
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /library/admin/author [post]
func (s *Server) AdminCreateAuthor(c *fiber.Ctx) error {
	var req authorRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	author, err := s.catalogService.CreateAuthor(c.UserContext(), req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(author)
}

// AdminUpdateAuthor handles PATCH /library/admin/author/:id
// @Summary Rename author
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Author ID"
// @Param request body authorRequest true "Author"
// @Success 200 {object} models.Author
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /library/admin/author/{id} [patch]
func (s *Server) AdminUpdateAuthor(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req authorRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	author, err := s.catalogService.RenameAuthor(c.UserContext(), id, req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(author)
}

// AdminDeleteAuthor handles DELETE /library/admin/author/:id
// @Summary Delete author
// @Tags admin
// @Produce json
// @Param id path int true "Author ID"
// @Success 200 {object} object{success=bool}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /library/admin/author/{id} [delete]
func (s *Server) AdminDeleteAuthor(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.catalogService.DeleteAuthor(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// AdminCreateTag handles POST /library/admin/tag
// @Summary Create tag
// @Tags admin
// @Accept json
// @Produce json
// @Param request body tagRequest true "Tag"
// @Success 201 {object} models.Tag
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /library/admin/tag [post]
func (s *Server) AdminCreateTag(c *fiber.Ctx) error {
	var req tagRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	tag, err := s.catalogService.CreateTag(c.UserContext(), req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tag)
}

// AdminUpdateTag handles PATCH /library/admin/tag/:id
// @Summary Update tag
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Tag ID"
// @Param request body tagRequest true "Tag"
// @Success 200 {object} models.Tag
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /library/admin/tag/{id} [patch]
func (s *Server) AdminUpdateTag(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req tagRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	tag, err := s.catalogService.UpdateTag(c.UserContext(), id, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tag)
}

// AdminDeleteTag handles DELETE /library/admin/tag/:id
// @Summary Delete tag
// @Tags admin
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} object{success=bool}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /library/admin/tag/{id} [delete]
func (s *Server) AdminDeleteTag(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.catalogService.DeleteTag(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// publishLoanEvent notifies subscribers after a committed lend or return.
// Delivery failures are logged and never fail the request.
func (s *Server) publishLoanEvent(c *fiber.Ctx, eventType string, book *models.Book, userID uint) {
	err := s.notifier.PublishLoanEvent(c.UserContext(), notifications.LoanEvent{
		Type:      eventType,
		BookID:    book.ID,
		UserID:    userID,
		Title:     book.Title,
		Available: book.Available,
	})
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "failed to publish loan event",
			slog.String("type", eventType),
			slog.Uint64("book_id", uint64(book.ID)),
			slog.String("error", err.Error()),
		)
	}
}
