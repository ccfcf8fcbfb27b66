package server

import (
	"librarium/internal/repository"
	"librarium/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetBooks handles GET /library
// @Summary List books
// @Description Case-insensitive search on title and description with pagination
// @Tags library
// @Produce json
// @Param filter_str query string false "Substring of title or description"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Book
// @Router /library [get]
func (s *Server) GetBooks(c *fiber.Ctx) error {
	page := parsePagination(c, repository.DefaultPageSize)
	books, err := s.catalogService.ListBooks(c.UserContext(), service.ListBooksInput{
		Query:  c.Query("filter_str"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(books)
}

// GetBook handles GET /library/:bookId
// @Summary Book detail
// @Description Book with authors, tags, comments and average rating
// @Tags library
// @Produce json
// @Param bookId path int true "Book ID"
// @Success 200 {object} models.Book
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /library/{bookId} [get]
func (s *Server) GetBook(c *fiber.Ctx) error {
	id, err := s.parseID(c, "bookId")
	if err != nil {
		return nil
	}
	book, err := s.catalogService.GetBook(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(book)
}

// GetAuthors handles GET /library/author
// @Summary List authors
// @Tags library
// @Produce json
// @Param filter_str query string false "Substring of the author name"
// @Success 200 {array} models.Author
// @Router /library/author [get]
func (s *Server) GetAuthors(c *fiber.Ctx) error {
	authors, err := s.catalogService.ListAuthors(c.UserContext(), c.Query("filter_str"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(authors)
}

// GetAuthorBooks handles GET /library/author/:id
// @Summary Books by author
// @Tags library
// @Produce json
// @Param id path int true "Author ID"
// @Success 200 {array} models.Book
// @Router /library/author/{id} [get]
func (s *Server) GetAuthorBooks(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	books, err := s.catalogService.BooksByAuthor(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(books)
}

// GetTags handles GET /library/tag and GET /library/admin/tag
// @Summary List tags
// @Tags library
// @Produce json
// @Success 200 {array} models.Tag
// @Router /library/tag [get]
func (s *Server) GetTags(c *fiber.Ctx) error {
	tags, err := s.catalogService.ListTags(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tags)
}
