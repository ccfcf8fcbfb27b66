package seed

import (
	"bytes"
	"context"
	"testing"
	"time"

	"librarium/internal/models"
	"librarium/internal/testutil"
	"librarium/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

func TestDemoPasswordSatisfiesPolicy(t *testing.T) {
	assert.NoError(t, validation.ValidatePassword(DemoPassword))
}

func TestFactory_DryRun(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil, FactoryOptions{DryRun: true, SkipBcrypt: true, MaxDays: 30})

	user, err := f.CreateUser()
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NoError(t, validation.ValidateUsername(user.Username))

	author, err := f.CreateAuthor(ctx)
	require.NoError(t, err)
	book, err := f.CreateBook(ctx, []models.Author{*author}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, user.ID, book.ID)
	assert.Equal(t, book.Quantity, book.Available)
	assert.LessOrEqual(t, len(book.Description), 250)
	require.NotNil(t, book.YearPublished)
	assert.LessOrEqual(t, *book.YearPublished, time.Now().Year())

	loan, err := f.LendBook(ctx, user, book)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), loan.BorrowedAt, 31*24*time.Hour)
}

func TestFactory_UserPasswordIsHashed(t *testing.T) {
	db := testutil.OpenSQLite(t)
	f := NewFactory(db, FactoryOptions{SkipBcrypt: true})

	user, err := f.CreateUser(func(u *models.User) { u.IsAdmin = true })
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.True(t, stored.IsAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(DemoPassword)))
}

func TestSeed_KeepsAvailabilityConsistent(t *testing.T) {
	db := testutil.OpenSQLite(t)

	summary, err := Seed(context.Background(), db, Options{
		NumUsers: 5,
		NumBooks: 6,
		Factory:  FactoryOptions{SkipBcrypt: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Books)
	assert.Equal(t, 5, summary.Users)
	assert.Equal(t, len(genres), summary.Tags)
	assert.Equal(t, 3, summary.Authors)

	var books []models.Book
	require.NoError(t, db.Find(&books).Error)
	require.Len(t, books, 6)

	for _, b := range books {
		var open int64
		require.NoError(t, db.Model(&models.Loan{}).
			Where("book_id = ? AND returned_at IS NULL", b.ID).Count(&open).Error)
		assert.GreaterOrEqual(t, b.Available, 0)
		assert.LessOrEqual(t, b.Available, b.Quantity)
		assert.Equal(t, int64(b.Quantity-b.Available), open, "book %d", b.ID)
	}

	var loans int64
	require.NoError(t, db.Model(&models.Loan{}).Count(&loans).Error)
	assert.Equal(t, int64(summary.Loans), loans)
}

func TestClearData(t *testing.T) {
	db := testutil.OpenSQLite(t)
	_, err := Seed(context.Background(), db, Options{
		NumUsers: 2,
		NumBooks: 2,
		Factory:  FactoryOptions{SkipBcrypt: true},
	})
	require.NoError(t, err)

	require.NoError(t, ClearData(db))

	for _, model := range []interface{}{&models.User{}, &models.Book{}, &models.Author{}, &models.Tag{}, &models.Loan{}} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}
}

func TestExport(t *testing.T) {
	db := testutil.OpenSQLite(t)
	author := testutil.CreateAuthor(t, db, "Italo Calvino")
	tag := testutil.CreateTag(t, db, "Fiction")
	book := testutil.CreateBook(t, db, "Invisible Cities", 2)
	require.NoError(t, db.Create(&models.BookAuthor{BookID: book.ID, AuthorID: author.ID}).Error)
	require.NoError(t, db.Create(&models.BookTag{BookID: book.ID, TagID: tag.ID}).Error)
	reader := testutil.CreateUser(t, db, "reader", false)
	require.NoError(t, db.Create(&models.Rating{UserID: reader.ID, BookID: book.ID, Value: 4}).Error)
	testutil.CreateBook(t, db, "Unrated", 1)

	var buf bytes.Buffer
	require.NoError(t, Export(context.Background(), db, &buf))

	var doc CatalogExport
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, []string{"Italo Calvino"}, doc.Authors)
	assert.Equal(t, []string{"Fiction"}, doc.Tags)
	require.Len(t, doc.Books, 2)

	first := doc.Books[0]
	assert.Equal(t, "Invisible Cities", first.Title)
	assert.Equal(t, []string{"Italo Calvino"}, first.Authors)
	assert.Equal(t, []string{"Fiction"}, first.Tags)
	require.NotNil(t, first.AvgRating)
	assert.InDelta(t, 4.0, *first.AvgRating, 0.001)
	assert.Nil(t, doc.Books[1].AvgRating)
	assert.NotContains(t, buf.String(), "avg_rating: null")
}
