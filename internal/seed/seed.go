package seed

import (
	"context"
	"fmt"
	"log"

	"librarium/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumBooks    int
	ShouldClean bool
	Factory     FactoryOptions
}

// Summary counts what a Seed run created.
type Summary struct {
	Users    int
	Authors  int
	Tags     int
	Books    int
	Ratings  int
	Comments int
	Loans    int
}

var genres = []string{
	"Fantasy", "Science Fiction", "Mystery", "Romance", "History",
	"Biography", "Poetry", "Philosophy", "Horror", "Travel",
}

// Seed populates the database with a demo catalog and activity.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	log.Printf("Starting database seeding with %d users and %d books...", opts.NumUsers, opts.NumBooks)

	if opts.ShouldClean {
		if err := ClearData(db); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	f := NewFactory(db, opts.Factory)
	summary := &Summary{}

	tags := make([]models.Tag, 0, len(genres))
	for _, genre := range genres {
		tag, err := f.CreateTag(ctx, genre)
		if err != nil {
			return nil, fmt.Errorf("failed to create tag %q: %w", genre, err)
		}
		tags = append(tags, *tag)
	}
	summary.Tags = len(tags)

	authorCount := opts.NumBooks/3 + 1
	authors := make([]models.Author, 0, authorCount)
	for i := 0; i < authorCount; i++ {
		author, err := f.CreateAuthor(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create author: %w", err)
		}
		authors = append(authors, *author)
	}
	summary.Authors = len(authors)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, user)
	}
	summary.Users = len(users)

	for i := 0; i < opts.NumBooks; i++ {
		bookAuthors := []models.Author{authors[f.faker.Number(0, len(authors)-1)]}
		bookTags := f.pickTags(tags)
		book, err := f.CreateBook(ctx, bookAuthors, bookTags)
		if err != nil {
			return nil, fmt.Errorf("failed to create book: %w", err)
		}
		summary.Books++

		for _, user := range users {
			roll := f.faker.Number(0, 9)
			switch {
			case roll < 3:
				if _, err := f.RateBook(ctx, user, book); err == nil {
					summary.Ratings++
				}
			case roll < 5:
				if _, err := f.CreateComment(ctx, user, book); err == nil {
					summary.Comments++
				}
			case roll < 6:
				// Lending stops quietly once the shelf is empty.
				if _, err := f.LendBook(ctx, user, book); err == nil {
					summary.Loans++
				}
			}
		}
	}

	log.Printf("Seeding completed: %+v", *summary)
	return summary, nil
}

// pickTags returns up to two distinct tags.
func (f *Factory) pickTags(tags []models.Tag) []models.Tag {
	order := make([]int, len(tags))
	for i := range order {
		order[i] = i
	}
	f.faker.ShuffleInts(order)

	n := f.faker.Number(0, 2)
	if n > len(order) {
		n = len(order)
	}
	picked := make([]models.Tag, 0, n)
	for _, i := range order[:n] {
		picked = append(picked, tags[i])
	}
	return picked
}

// ClearData removes every catalog row, children first, so it works on both
// postgres and sqlite.
func ClearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	tables := []interface{}{
		&models.Loan{}, &models.Rating{}, &models.Comment{},
		&models.BookAuthor{}, &models.BookTag{},
		&models.Book{}, &models.Author{}, &models.Tag{},
		&models.RefreshToken{}, &models.User{},
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
