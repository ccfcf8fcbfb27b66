package repository

import (
	"errors"
	"strings"

	"librarium/internal/database"
	"librarium/internal/models"

	"gorm.io/gorm"
)

// Pagination defaults shared by list queries.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a limit/offset window.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the window to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// mapError converts gorm errors into AppErrors: missing rows become NOT_FOUND
// for resource/id and anything else is wrapped as INTERNAL_ERROR. AppErrors
// pass through untouched.
func mapError(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// mapWriteError is mapError for inserts and updates, turning unique
// violations into CONFLICT with message.
func mapWriteError(err error, conflictMessage string) error {
	if err == nil {
		return nil
	}
	if database.IsUniqueViolation(err) {
		return models.NewConflictError(conflictMessage)
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}

// containsPattern builds a lower-cased LIKE pattern for case-insensitive
// substring search, escaping LIKE wildcards in q.
func containsPattern(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
	return "%" + q + "%"
}
