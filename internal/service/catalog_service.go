package service

import (
	"context"
	"strings"
	"time"

	"librarium/internal/models"
	"librarium/internal/repository"
	"librarium/internal/validation"
)

// CatalogService covers browsing and administration of books, authors and tags.
type CatalogService struct {
	bookRepo   repository.BookRepository
	authorRepo repository.AuthorRepository
	tagRepo    repository.TagRepository
	now        func() time.Time
}

type ListBooksInput struct {
	Query    string
	AuthorID uint
	Limit    int
	Offset   int
}

type CreateBookInput struct {
	Title         string `json:"title"`
	YearPublished *int   `json:"year_published"`
	Description   string `json:"description"`
	Quantity      int    `json:"quantity"`
	AuthorIDs     []uint `json:"authors_id"`
	TagIDs        []uint `json:"tags_id"`
}

func NewCatalogService(
	bookRepo repository.BookRepository,
	authorRepo repository.AuthorRepository,
	tagRepo repository.TagRepository,
) *CatalogService {
	return &CatalogService{
		bookRepo:   bookRepo,
		authorRepo: authorRepo,
		tagRepo:    tagRepo,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *CatalogService) ListBooks(ctx context.Context, in ListBooksInput) ([]models.Book, error) {
	return s.bookRepo.List(ctx, repository.BookFilter{
		Query:    in.Query,
		AuthorID: in.AuthorID,
		Page:     repository.Page{Limit: in.Limit, Offset: in.Offset},
	})
}

// GetBook returns the book with authors, tags, comments and rating aggregates.
func (s *CatalogService) GetBook(ctx context.Context, id uint) (*models.Book, error) {
	return s.bookRepo.GetDetail(ctx, id)
}

// CreateBook stores a new title with every copy on the shelf. Unknown author
// and tag ids are dropped.
func (s *CatalogService) CreateBook(ctx context.Context, in CreateBookInput) (*models.Book, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validateBookFields(&in.Title, in.YearPublished, &in.Description, &in.Quantity); err != nil {
		return nil, err
	}

	book := &models.Book{
		Title:         in.Title,
		YearPublished: in.YearPublished,
		Description:   in.Description,
		Quantity:      in.Quantity,
		Available:     in.Quantity,
	}
	if err := s.bookRepo.Create(ctx, book, in.AuthorIDs, in.TagIDs); err != nil {
		return nil, err
	}
	return s.bookRepo.GetByID(ctx, book.ID)
}

// UpdateBook applies only the fields present in update.
func (s *CatalogService) UpdateBook(ctx context.Context, id uint, update models.BookUpdate) (*models.Book, error) {
	if update.Title != nil {
		trimmed := strings.TrimSpace(*update.Title)
		update.Title = &trimmed
	}
	if err := s.validateBookFields(update.Title, update.YearPublished, update.Description, update.Quantity); err != nil {
		return nil, err
	}
	return s.bookRepo.Update(ctx, id, update)
}

func (s *CatalogService) DeleteBook(ctx context.Context, id uint) error {
	return s.bookRepo.Delete(ctx, id)
}

func (s *CatalogService) validateBookFields(title *string, year *int, description *string, quantity *int) error {
	if title != nil {
		if err := validation.ValidateTitle(*title); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	if year != nil {
		if err := validation.ValidateYearPublished(*year, s.now()); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	if description != nil {
		if err := validation.ValidateDescription(*description); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	if quantity != nil {
		if err := validation.ValidateQuantity(*quantity); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	return nil
}

func (s *CatalogService) ListAuthors(ctx context.Context, query string) ([]models.Author, error) {
	return s.authorRepo.List(ctx, query)
}

// BooksByAuthor lists the author's books; an unknown author simply has none.
func (s *CatalogService) BooksByAuthor(ctx context.Context, authorID uint) ([]models.Book, error) {
	return s.bookRepo.List(ctx, repository.BookFilter{
		AuthorID: authorID,
		Page:     repository.Page{Limit: repository.MaxPageSize},
	})
}

func (s *CatalogService) CreateAuthor(ctx context.Context, name string) (*models.Author, error) {
	name = strings.TrimSpace(name)
	if err := validation.ValidateName("name", name, validation.MaxAuthorNameLength); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	author := &models.Author{Name: name}
	if err := s.authorRepo.Create(ctx, author); err != nil {
		return nil, err
	}
	return author, nil
}

func (s *CatalogService) RenameAuthor(ctx context.Context, id uint, name string) (*models.Author, error) {
	name = strings.TrimSpace(name)
	if err := validation.ValidateName("name", name, validation.MaxAuthorNameLength); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return s.authorRepo.Rename(ctx, id, name)
}

func (s *CatalogService) DeleteAuthor(ctx context.Context, id uint) error {
	return s.authorRepo.Delete(ctx, id)
}

func (s *CatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.tagRepo.List(ctx)
}

func (s *CatalogService) CreateTag(ctx context.Context, content string) (*models.Tag, error) {
	content = strings.TrimSpace(content)
	if err := validation.ValidateName("content", content, validation.MaxTagLength); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	tag := &models.Tag{Content: content}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *CatalogService) UpdateTag(ctx context.Context, id uint, content string) (*models.Tag, error) {
	content = strings.TrimSpace(content)
	if err := validation.ValidateName("content", content, validation.MaxTagLength); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return s.tagRepo.UpdateContent(ctx, id, content)
}

func (s *CatalogService) DeleteTag(ctx context.Context, id uint) error {
	return s.tagRepo.Delete(ctx, id)
}
