package models

import "time"

// Book is a catalog title together with its physical copy counters.
// Available is only changed by the lending workflow and by quantity updates;
// 0 <= Available <= Quantity always holds.
type Book struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"not null" json:"title"`
	YearPublished *int      `json:"year_published"`
	Description   string    `gorm:"size:250;not null;default:''" json:"description"`
	Quantity      int       `gorm:"not null;default:0;check:chk_books_quantity,quantity >= 0" json:"quantity"`
	Available     int       `gorm:"not null;default:0;check:chk_books_available,available >= 0 AND available <= quantity" json:"available"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// AvgRating is computed at query time; nil when the book has no ratings.
	AvgRating *float64 `gorm:"->;-:migration" json:"avg_rating"`
	// CommentsCount is computed at query time.
	CommentsCount int `gorm:"->;-:migration" json:"count_comments"`

	Authors  []Author  `gorm:"-" json:"authors"`
	Tags     []Tag     `gorm:"-" json:"tags"`
	Comments []Comment `gorm:"-" json:"comments,omitempty"`
}

// BookUpdate lists the mutable book fields; nil fields are left unchanged.
// AuthorIDs and TagIDs, when set, replace the existing associations.
type BookUpdate struct {
	Title         *string `json:"title"`
	YearPublished *int    `json:"year_published"`
	Description   *string `json:"description"`
	Quantity      *int    `json:"quantity"`
	AuthorIDs     *[]uint `json:"authors_id"`
	TagIDs        *[]uint `json:"tags_id"`
}

// SetQuantity changes the number of owned copies and shifts Available by the
// same delta, clamped to [0, quantity]. Dropping to zero copies empties the shelf.
func (b *Book) SetQuantity(quantity int) {
	if quantity == 0 {
		b.Available = 0
	} else {
		b.Available += quantity - b.Quantity
	}
	b.Quantity = quantity
	if b.Available < 0 {
		b.Available = 0
	}
	if b.Available > b.Quantity {
		b.Available = b.Quantity
	}
}

// Author wrote one or more books.
type Author struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null;index" json:"name"`
}

// Tag is a free-form label attached to books.
type Tag struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Content string `gorm:"size:100;not null" json:"content"`
}

// BookAuthor links a book to one of its authors.
type BookAuthor struct {
	BookID   uint   `gorm:"primaryKey;autoIncrement:false" json:"book_id"`
	AuthorID uint   `gorm:"primaryKey;autoIncrement:false;index" json:"author_id"`
	Book     Book   `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`
	Author   Author `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}

// BookTag links a book to one of its tags.
type BookTag struct {
	BookID uint `gorm:"primaryKey;autoIncrement:false" json:"book_id"`
	TagID  uint `gorm:"primaryKey;autoIncrement:false;index" json:"tag_id"`
	Book   Book `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`
	Tag    Tag  `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE" json:"-"`
}

// BookAuthorRow is a typed row produced by joining authors through book_authors.
type BookAuthorRow struct {
	BookID uint
	Author
}

// BookTagRow is a typed row produced by joining tags through book_tags.
type BookTagRow struct {
	BookID uint
	Tag
}
