package repository

import (
	"context"
	"time"

	"librarium/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookFilter narrows a book listing. Query is matched case-insensitively
// against title and description; AuthorID restricts to one author's books.
type BookFilter struct {
	Query    string
	AuthorID uint
	Page     Page
}

// BookRepository defines persistence operations for books and their associations.
type BookRepository interface {
	List(ctx context.Context, filter BookFilter) ([]models.Book, error)
	GetByID(ctx context.Context, id uint) (*models.Book, error)
	GetDetail(ctx context.Context, id uint) (*models.Book, error)
	Create(ctx context.Context, book *models.Book, authorIDs, tagIDs []uint) error
	Update(ctx context.Context, id uint, update models.BookUpdate) (*models.Book, error)
	Delete(ctx context.Context, id uint) error
}

type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository returns a new BookRepository implementation.
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

const bookAggregateColumns = "books.*, " +
	"(SELECT CAST(AVG(ratings.value) AS DOUBLE PRECISION) FROM ratings WHERE ratings.book_id = books.id) AS avg_rating, " +
	"(SELECT COUNT(*) FROM comments WHERE comments.book_id = books.id) AS comments_count"

func withBookAggregates(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Book{}).Select(bookAggregateColumns)
}

func (r *bookRepository) List(ctx context.Context, filter BookFilter) ([]models.Book, error) {
	page := filter.Page.Normalize()
	db := r.db.WithContext(ctx)

	query := withBookAggregates(db)
	if filter.Query != "" {
		pattern := containsPattern(filter.Query)
		query = query.Where(
			`LOWER(books.title) LIKE ? ESCAPE '\' OR LOWER(books.description) LIKE ? ESCAPE '\'`,
			pattern, pattern,
		)
	}
	if filter.AuthorID != 0 {
		query = query.Where(
			"EXISTS (SELECT 1 FROM book_authors WHERE book_authors.book_id = books.id AND book_authors.author_id = ?)",
			filter.AuthorID,
		)
	}

	var books []models.Book
	if err := query.Order("books.id ASC").Limit(page.Limit).Offset(page.Offset).Find(&books).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := attachAssociations(db, books); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *bookRepository) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	return getBook(r.db.WithContext(ctx), id)
}

func getBook(db *gorm.DB, id uint) (*models.Book, error) {
	var book models.Book
	if err := withBookAggregates(db).Where("books.id = ?", id).Take(&book).Error; err != nil {
		return nil, mapError(err, "Book", id)
	}
	books := []models.Book{book}
	if err := attachAssociations(db, books); err != nil {
		return nil, err
	}
	return &books[0], nil
}

func (r *bookRepository) GetDetail(ctx context.Context, id uint) (*models.Book, error) {
	db := r.db.WithContext(ctx)
	book, err := getBook(db, id)
	if err != nil {
		return nil, err
	}

	comments, err := listBookComments(db, id)
	if err != nil {
		return nil, err
	}
	book.Comments = comments
	return book, nil
}

// attachAssociations loads authors and tags for books with one join query each.
func attachAssociations(db *gorm.DB, books []models.Book) error {
	if len(books) == 0 {
		return nil
	}

	ids := make([]uint, len(books))
	index := make(map[uint]int, len(books))
	for i := range books {
		ids[i] = books[i].ID
		index[books[i].ID] = i
		books[i].Authors = []models.Author{}
		books[i].Tags = []models.Tag{}
	}

	var authorRows []models.BookAuthorRow
	if err := db.Table("authors").
		Select("book_authors.book_id AS book_id, authors.id AS id, authors.name AS name").
		Joins("JOIN book_authors ON book_authors.author_id = authors.id").
		Where("book_authors.book_id IN ?", ids).
		Order("authors.name ASC, authors.id ASC").
		Scan(&authorRows).Error; err != nil {
		return models.NewInternalError(err)
	}
	for _, row := range authorRows {
		b := &books[index[row.BookID]]
		b.Authors = append(b.Authors, row.Author)
	}

	var tagRows []models.BookTagRow
	if err := db.Table("tags").
		Select("book_tags.book_id AS book_id, tags.id AS id, tags.content AS content").
		Joins("JOIN book_tags ON book_tags.tag_id = tags.id").
		Where("book_tags.book_id IN ?", ids).
		Order("tags.id ASC").
		Scan(&tagRows).Error; err != nil {
		return models.NewInternalError(err)
	}
	for _, row := range tagRows {
		b := &books[index[row.BookID]]
		b.Tags = append(b.Tags, row.Tag)
	}
	return nil
}

func (r *bookRepository) Create(ctx context.Context, book *models.Book, authorIDs, tagIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(book).Error; err != nil {
			return err
		}
		if err := replaceAuthors(tx, book.ID, authorIDs); err != nil {
			return err
		}
		return replaceTags(tx, book.ID, tagIDs)
	})
	return mapWriteError(err, "Book already exists")
}

// Update applies the explicit field changes under a row lock so that quantity
// adjustments serialize with concurrent lending on the same book.
func (r *bookRepository) Update(ctx context.Context, id uint, update models.BookUpdate) (*models.Book, error) {
	var updated *models.Book
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book models.Book
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&book, id).Error; err != nil {
			return mapError(err, "Book", id)
		}

		if update.Title != nil {
			book.Title = *update.Title
		}
		if update.YearPublished != nil {
			book.YearPublished = update.YearPublished
		}
		if update.Description != nil {
			book.Description = *update.Description
		}
		if update.Quantity != nil {
			book.SetQuantity(*update.Quantity)
		}
		book.UpdatedAt = time.Now().UTC()

		if err := tx.Model(&book).
			Select("title", "year_published", "description", "quantity", "available", "updated_at").
			Updates(&book).Error; err != nil {
			return models.NewInternalError(err)
		}

		if update.AuthorIDs != nil {
			if err := replaceAuthors(tx, id, *update.AuthorIDs); err != nil {
				return err
			}
		}
		if update.TagIDs != nil {
			if err := replaceTags(tx, id, *update.TagIDs); err != nil {
				return err
			}
		}

		var err error
		updated, err = getBook(tx, id)
		return err
	})
	if err != nil {
		return nil, mapError(err, "Book", id)
	}
	return updated, nil
}

// replaceAuthors sets the book's authors to the subset of ids that exist.
func replaceAuthors(tx *gorm.DB, bookID uint, ids []uint) error {
	if err := tx.Where("book_id = ?", bookID).Delete(&models.BookAuthor{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if len(ids) == 0 {
		return nil
	}

	var existing []uint
	if err := tx.Model(&models.Author{}).Where("id IN ?", ids).Order("id").Pluck("id", &existing).Error; err != nil {
		return models.NewInternalError(err)
	}
	if len(existing) == 0 {
		return nil
	}

	links := make([]models.BookAuthor, 0, len(existing))
	for _, authorID := range existing {
		links = append(links, models.BookAuthor{BookID: bookID, AuthorID: authorID})
	}
	if err := tx.Omit(clause.Associations).Create(&links).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// replaceTags sets the book's tags to the subset of ids that exist.
func replaceTags(tx *gorm.DB, bookID uint, ids []uint) error {
	if err := tx.Where("book_id = ?", bookID).Delete(&models.BookTag{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if len(ids) == 0 {
		return nil
	}

	var existing []uint
	if err := tx.Model(&models.Tag{}).Where("id IN ?", ids).Order("id").Pluck("id", &existing).Error; err != nil {
		return models.NewInternalError(err)
	}
	if len(existing) == 0 {
		return nil
	}

	links := make([]models.BookTag, 0, len(existing))
	for _, tagID := range existing {
		links = append(links, models.BookTag{BookID: bookID, TagID: tagID})
	}
	if err := tx.Omit(clause.Associations).Create(&links).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the book and every row that references it.
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dependent := range []interface{}{
			&models.BookAuthor{}, &models.BookTag{}, &models.Comment{}, &models.Rating{}, &models.Loan{},
		} {
			if err := tx.Where("book_id = ?", id).Delete(dependent).Error; err != nil {
				return models.NewInternalError(err)
			}
		}

		res := tx.Delete(&models.Book{}, id)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Book", id)
		}
		return nil
	})
}
