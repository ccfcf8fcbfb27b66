package models

import "time"

// Rating values are bounded to this inclusive range.
const (
	MinRatingValue = 0
	MaxRatingValue = 5
)

// Rating is a user's score for a book; one row per (user, book).
type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Value     int       `gorm:"not null;check:chk_ratings_value,value >= 0 AND value <= 5" json:"value"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_ratings_user_book" json:"user_id"`
	BookID    uint      `gorm:"not null;uniqueIndex:idx_ratings_user_book;index" json:"book_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Book      *Book     `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`
}
