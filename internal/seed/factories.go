// Package seed provides helpers to create demo data for the catalog database.
// These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"librarium/internal/models"
	"librarium/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "Password1!"

// FactoryOptions tune how entities are generated.
type FactoryOptions struct {
	// DryRun builds entities with synthetic IDs without writing them.
	DryRun bool
	// SkipBcrypt stores a cheap hash; tests only.
	SkipBcrypt bool
	// MaxDays bounds how far back loans are dated.
	MaxDays int
}

// Factory builds catalog entities and persists them through the repositories,
// so seeded data obeys the same invariants as API writes.
type Factory struct {
	db       *gorm.DB
	opts     FactoryOptions
	faker    *gofakeit.Faker
	books    repository.BookRepository
	authors  repository.AuthorRepository
	tags     repository.TagRepository
	comments repository.CommentRepository
	ratings  repository.RatingRepository
	loans    repository.LoanRepository
	password string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts FactoryOptions) *Factory {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	f := &Factory{
		db:     db,
		opts:   opts,
		faker:  gofakeit.New(time.Now().UnixNano()),
		nextID: 1000,
	}
	if db != nil {
		f.books = repository.NewBookRepository(db)
		f.authors = repository.NewAuthorRepository(db)
		f.tags = repository.NewTagRepository(db)
		f.comments = repository.NewCommentRepository(db)
		f.ratings = repository.NewRatingRepository(db)
		f.loans = repository.NewLoanRepository(db)
	}
	return f
}

func (f *Factory) syntheticID() uint {
	f.nextID++
	return f.nextID
}

func (f *Factory) passwordHash() (string, error) {
	if f.password != "" {
		return f.password, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), cost)
	if err != nil {
		return "", err
	}
	f.password = string(hashed)
	return f.password, nil
}

// handle reduces s to characters allowed in usernames.
func handle(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	if b.Len() < 3 {
		b.WriteString("reader")
	}
	return b.String()
}

// CreateUser constructs and persists an active patron.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := f.passwordHash()
	if err != nil {
		return nil, err
	}
	username := fmt.Sprintf("%s%d", handle(f.faker.Username()), f.faker.Number(100, 99999))
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: hashed,
		IsActive: true,
	}
	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		user.ID = f.syntheticID()
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateAuthor persists an author with a generated name.
func (f *Factory) CreateAuthor(ctx context.Context) (*models.Author, error) {
	author := &models.Author{Name: f.faker.BookAuthor()}
	if f.opts.DryRun {
		author.ID = f.syntheticID()
		return author, nil
	}
	if err := f.authors.Create(ctx, author); err != nil {
		return nil, err
	}
	return author, nil
}

// CreateTag persists a tag with the given content.
func (f *Factory) CreateTag(ctx context.Context, content string) (*models.Tag, error) {
	tag := &models.Tag{Content: content}
	if f.opts.DryRun {
		tag.ID = f.syntheticID()
		return tag, nil
	}
	if err := f.tags.Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// BuildBook returns an unsaved book with every copy on the shelf.
func (f *Factory) BuildBook(overrides ...func(*models.Book)) *models.Book {
	year := f.faker.Number(1850, time.Now().Year())
	description := f.faker.Sentence(20)
	if len(description) > 250 {
		description = strings.TrimSpace(description[:250])
	}
	quantity := f.faker.Number(1, 10)
	book := &models.Book{
		Title:         f.faker.BookTitle(),
		YearPublished: &year,
		Description:   description,
		Quantity:      quantity,
		Available:     quantity,
	}
	for _, override := range overrides {
		override(book)
	}
	return book
}

// CreateBook persists a generated book linked to the given authors and tags.
func (f *Factory) CreateBook(ctx context.Context, authors []models.Author, tags []models.Tag, overrides ...func(*models.Book)) (*models.Book, error) {
	book := f.BuildBook(overrides...)
	if f.opts.DryRun {
		book.ID = f.syntheticID()
		book.Authors = authors
		book.Tags = tags
		return book, nil
	}

	authorIDs := make([]uint, len(authors))
	for i := range authors {
		authorIDs[i] = authors[i].ID
	}
	tagIDs := make([]uint, len(tags))
	for i := range tags {
		tagIDs[i] = tags[i].ID
	}
	if err := f.books.Create(ctx, book, authorIDs, tagIDs); err != nil {
		return nil, err
	}
	return book, nil
}

// CreateComment persists a short remark by user on book.
func (f *Factory) CreateComment(ctx context.Context, user *models.User, book *models.Book) (*models.Comment, error) {
	content := f.faker.Sentence(f.faker.Number(4, 25))
	if len(content) > 300 {
		content = strings.TrimSpace(content[:300])
	}
	comment := &models.Comment{Content: content, UserID: user.ID, BookID: book.ID}
	if f.opts.DryRun {
		comment.ID = f.syntheticID()
		return comment, nil
	}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// RateBook records a random score by user for book.
func (f *Factory) RateBook(ctx context.Context, user *models.User, book *models.Book) (*models.Rating, error) {
	rating := &models.Rating{
		UserID: user.ID,
		BookID: book.ID,
		Value:  f.faker.Number(models.MinRatingValue, models.MaxRatingValue),
	}
	if f.opts.DryRun {
		rating.ID = f.syntheticID()
		return rating, nil
	}
	if err := f.ratings.Upsert(ctx, rating); err != nil {
		return nil, err
	}
	return rating, nil
}

// LendBook lends a copy of book to user, dated within the last MaxDays.
func (f *Factory) LendBook(ctx context.Context, user *models.User, book *models.Book) (*models.Loan, error) {
	borrowedAt := time.Now().UTC().Add(-time.Duration(f.faker.Number(0, f.opts.MaxDays*24)) * time.Hour)
	if f.opts.DryRun {
		log.Printf("[dry-run] LendBook: book=%d user=%d", book.ID, user.ID)
		return &models.Loan{ID: f.syntheticID(), BookID: book.ID, UserID: user.ID, BorrowedAt: borrowedAt}, nil
	}
	_, loan, err := f.loans.Lend(ctx, book.ID, user.ID, borrowedAt)
	if err != nil {
		return nil, err
	}
	return loan, nil
}
