package repository

import (
	"context"

	"librarium/internal/models"

	"gorm.io/gorm"
)

// AuthorRepository defines persistence operations for authors.
type AuthorRepository interface {
	List(ctx context.Context, query string) ([]models.Author, error)
	GetByID(ctx context.Context, id uint) (*models.Author, error)
	Create(ctx context.Context, author *models.Author) error
	Rename(ctx context.Context, id uint, name string) (*models.Author, error)
	Delete(ctx context.Context, id uint) error
}

type authorRepository struct {
	db *gorm.DB
}

// NewAuthorRepository returns a new AuthorRepository implementation.
func NewAuthorRepository(db *gorm.DB) AuthorRepository {
	return &authorRepository{db: db}
}

// List returns authors whose name contains query (case-insensitive), ordered by name.
func (r *authorRepository) List(ctx context.Context, query string) ([]models.Author, error) {
	authors := []models.Author{}
	db := r.db.WithContext(ctx)
	if query != "" {
		db = db.Where(`LOWER(name) LIKE ? ESCAPE '\'`, containsPattern(query))
	}
	if err := db.Order("name ASC, id ASC").Find(&authors).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return authors, nil
}

func (r *authorRepository) GetByID(ctx context.Context, id uint) (*models.Author, error) {
	var author models.Author
	if err := r.db.WithContext(ctx).First(&author, id).Error; err != nil {
		return nil, mapError(err, "Author", id)
	}
	return &author, nil
}

func (r *authorRepository) Create(ctx context.Context, author *models.Author) error {
	if err := r.db.WithContext(ctx).Create(author).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *authorRepository) Rename(ctx context.Context, id uint, name string) (*models.Author, error) {
	res := r.db.WithContext(ctx).Model(&models.Author{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Author", id)
	}
	return &models.Author{ID: id, Name: name}, nil
}

// Delete removes the author and its book links; the books themselves stay.
func (r *authorRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("author_id = ?", id).Delete(&models.BookAuthor{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		res := tx.Delete(&models.Author{}, id)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Author", id)
		}
		return nil
	})
}
