// Package testutil provides shared database fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"librarium/internal/database"
	"librarium/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// OpenSQLite opens a private in-memory sqlite database with the full schema
// migrated. The single connection serializes transactions like a row lock would.
func OpenSQLite(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// MockDB returns a postgres-dialect gorm handle backed by sqlmock.
func MockDB(t testing.TB) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock
}

// CreateUser inserts an active user; the password column holds a placeholder hash.
func CreateUser(t testing.TB, db *gorm.DB, username string, isAdmin bool) *models.User {
	t.Helper()
	user := &models.User{
		Email:    username + "@example.com",
		Username: username,
		Password: "not-a-real-hash",
		IsActive: true,
		IsAdmin:  isAdmin,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateBook inserts a book with every copy on the shelf.
func CreateBook(t testing.TB, db *gorm.DB, title string, quantity int) *models.Book {
	t.Helper()
	book := &models.Book{Title: title, Quantity: quantity, Available: quantity}
	require.NoError(t, db.Create(book).Error)
	return book
}

// CreateAuthor inserts an author.
func CreateAuthor(t testing.TB, db *gorm.DB, name string) *models.Author {
	t.Helper()
	author := &models.Author{Name: name}
	require.NoError(t, db.Create(author).Error)
	return author
}

// CreateTag inserts a tag.
func CreateTag(t testing.TB, db *gorm.DB, content string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Content: content}
	require.NoError(t, db.Create(tag).Error)
	return tag
}
