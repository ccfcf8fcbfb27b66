package models

import "time"

// Comment is a user's remark on a book. Only its author may edit it.
type Comment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Content   string     `gorm:"size:300;not null" json:"content"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	BookID    uint       `gorm:"not null;index" json:"book_id"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at"`
	User      *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Book      *Book      `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`

	// Username is joined from users at query time.
	Username string `gorm:"->;-:migration" json:"username,omitempty"`
}
