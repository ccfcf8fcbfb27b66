package models

import "time"

// Loan records one physical copy of a book being lent to a user.
// A loan is open while ReturnedAt is nil; at most one open loan exists per (book, user).
type Loan struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	BookID     uint       `gorm:"not null;index;uniqueIndex:idx_loans_open,where:returned_at IS NULL" json:"book_id"`
	UserID     uint       `gorm:"not null;index;uniqueIndex:idx_loans_open,where:returned_at IS NULL" json:"user_id"`
	BorrowedAt time.Time  `gorm:"not null" json:"borrowed_at"`
	ReturnedAt *time.Time `json:"returned_at"`
	Book       *Book      `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"book,omitempty"`
	User       *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsOpen reports whether the copy is still checked out.
func (l *Loan) IsOpen() bool {
	return l.ReturnedAt == nil
}
