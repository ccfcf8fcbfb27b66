package database

import "librarium/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models,
// parents before the tables that reference them.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.RefreshToken{},
		&models.Author{},
		&models.Tag{},
		&models.Book{},
		&models.BookAuthor{},
		&models.BookTag{},
		&models.Comment{},
		&models.Rating{},
		&models.Loan{},
	}
}
