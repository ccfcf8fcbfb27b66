package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"librarium/internal/models"
	"librarium/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoanRepository_LendAndReturnCounts(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	book := testutil.CreateBook(t, db, "Dune", 10)
	borrowers := make([]*models.User, 8)
	for i := range borrowers {
		borrowers[i] = testutil.CreateUser(t, db, fmt.Sprintf("reader%d", i), false)
		got, loan, err := repo.Lend(ctx, book.ID, borrowers[i].ID, now)
		require.NoError(t, err)
		assert.True(t, loan.IsOpen())
		assert.Equal(t, 10-(i+1), got.Available)
	}

	got, loan, err := repo.Return(ctx, book.ID, borrowers[0].ID, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 3, got.Available)
	assert.False(t, loan.IsOpen())

	stranger := testutil.CreateUser(t, db, "stranger", false)
	_, _, err = repo.Return(ctx, book.ID, stranger.ID, now)
	require.Error(t, err)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	assert.Contains(t, err.Error(), "never borrowed")

	// A second return of the same loan is also rejected.
	_, _, err = repo.Return(ctx, book.ID, borrowers[0].ID, now)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	var stored models.Book
	require.NoError(t, db.First(&stored, book.ID).Error)
	assert.Equal(t, 3, stored.Available)
}

func TestLoanRepository_LendFailures(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	reader := testutil.CreateUser(t, db, "reader", false)
	other := testutil.CreateUser(t, db, "other", false)
	book := testutil.CreateBook(t, db, "Single Copy", 1)
	empty := testutil.CreateBook(t, db, "Nothing On Shelf", 0)

	tests := []struct {
		name   string
		bookID uint
		userID uint
		code   string
	}{
		{"missing book", 999, reader.ID, models.CodeNotFound},
		{"missing user", book.ID, 999, models.CodeNotFound},
		{"no copies", empty.ID, reader.ID, models.CodeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := repo.Lend(ctx, tt.bookID, tt.userID, now)
			require.Error(t, err)
			assert.Equal(t, tt.code, models.ErrorCode(err))
		})
	}

	_, _, err := repo.Lend(ctx, book.ID, reader.ID, now)
	require.NoError(t, err)

	_, _, err = repo.Lend(ctx, book.ID, other.ID, now)
	assert.Equal(t, models.CodeUnavailable, models.ErrorCode(err))

	require.NoError(t, db.Model(&models.Book{}).Where("id = ?", book.ID).
		Updates(map[string]interface{}{"quantity": 2, "available": 1}).Error)
	_, _, err = repo.Lend(ctx, book.ID, reader.ID, now)
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	var stored models.Book
	require.NoError(t, db.First(&stored, book.ID).Error)
	assert.Equal(t, 1, stored.Available)
}

func TestLoanRepository_ConcurrentLendOnLastCopies(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	const copies, callers = 3, 12
	book := testutil.CreateBook(t, db, "Contested", copies)
	users := make([]*models.User, callers)
	for i := range users {
		users[i] = testutil.CreateUser(t, db, fmt.Sprintf("racer%d", i), false)
	}

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		succeeded   int
		unavailable int
	)
	for _, u := range users {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			_, _, err := repo.Lend(ctx, book.ID, userID, time.Now().UTC())
			mu.Lock()
			defer mu.Unlock()
			switch models.ErrorCode(err) {
			case "":
				succeeded++
			case models.CodeUnavailable:
				unavailable++
			}
		}(u.ID)
	}
	wg.Wait()

	assert.Equal(t, copies, succeeded)
	assert.Equal(t, callers-copies, unavailable)

	var stored models.Book
	require.NoError(t, db.First(&stored, book.ID).Error)
	assert.Equal(t, 0, stored.Available)
}

func TestLoanRepository_ReturnCappedAtQuantity(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repo := NewLoanRepository(db)
	books := NewBookRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	reader := testutil.CreateUser(t, db, "reader", false)
	book := testutil.CreateBook(t, db, "Shrinking", 2)
	_, _, err := repo.Lend(ctx, book.ID, reader.ID, now)
	require.NoError(t, err)

	// Quantity drops to 1 while the copy is out: available goes 1 -> 0.
	one := 1
	updated, err := books.Update(ctx, book.ID, models.BookUpdate{Quantity: &one})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Available)

	got, _, err := repo.Return(ctx, book.ID, reader.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Available)
	assert.Equal(t, 1, got.Quantity)
}

func TestLoanRepository_History(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	reader := testutil.CreateUser(t, db, "reader", false)
	first := testutil.CreateBook(t, db, "First", 1)
	second := testutil.CreateBook(t, db, "Second", 1)

	_, _, err := repo.Lend(ctx, first.ID, reader.ID, now)
	require.NoError(t, err)
	_, _, err = repo.Return(ctx, first.ID, reader.ID, now.Add(time.Minute))
	require.NoError(t, err)
	_, _, err = repo.Lend(ctx, second.ID, reader.ID, now.Add(2*time.Minute))
	require.NoError(t, err)
	// Borrowing the same title again after returning it is allowed.
	_, _, err = repo.Lend(ctx, first.ID, reader.ID, now.Add(3*time.Minute))
	require.NoError(t, err)

	mine, err := repo.ListByUser(ctx, reader.ID)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, first.ID, mine[0].BookID)
	require.NotNil(t, mine[0].Book)
	assert.Equal(t, "First", mine[0].Book.Title)
	assert.False(t, mine[2].IsOpen())

	history, err := repo.ListByBook(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
