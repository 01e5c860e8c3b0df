package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Book is the canonical record for an external-catalog volume. One row per
// google_id; created lazily on the first add-to-library and never mutated
// afterwards.
type Book struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	GoogleID    string    `gorm:"uniqueIndex;not null" json:"google_id"`
	Title       string    `gorm:"not null" json:"title"`
	Authors     string    `json:"authors"` // comma-joined list
	Description string    `json:"description"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
}

func (book *Book) BeforeCreate(tx *gorm.DB) (err error) {
	if book.ID == "" {
		book.ID = uuid.New().String()
	}
	return
}

func (Book) TableName() string {
	return "books"
}
