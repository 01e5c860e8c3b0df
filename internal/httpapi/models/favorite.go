package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Favorite links a user to a canonical book they saved. The composite unique
// index makes the at-most-one-membership rule hold even across processes.
type Favorite struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_book" json:"user_id"`
	BookID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_book" json:"book_id"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`

	// Associations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (favorite *Favorite) BeforeCreate(tx *gorm.DB) (err error) {
	if favorite.ID == "" {
		favorite.ID = uuid.New().String()
	}
	return
}

func (Favorite) TableName() string {
	return "favorites"
}
