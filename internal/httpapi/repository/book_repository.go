package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookden/internal/httpapi/models"
)

type BookRepository interface {
	// GetOrCreate resolves the canonical row for book.GoogleID, inserting it
	// when absent. Concurrent calls for the same google id converge on one row.
	GetOrCreate(ctx context.Context, book *models.Book) (*models.Book, error)
	FindByID(ctx context.Context, id string) (*models.Book, error)
	FindByGoogleID(ctx context.Context, googleID string) (*models.Book, error)
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) GetOrCreate(ctx context.Context, book *models.Book) (*models.Book, error) {
	// Insert-or-skip on the google_id unique index, then re-fetch. The
	// re-fetch is needed either way: on conflict the incoming struct does not
	// carry the winning row's id.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "google_id"}},
			DoNothing: true,
		}).
		Create(book).Error
	if err != nil {
		return nil, fmt.Errorf("upsert book: %w", err)
	}

	return r.FindByGoogleID(ctx, book.GoogleID)
}

func (r *bookRepository) FindByID(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) FindByGoogleID(ctx context.Context, googleID string) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).Where("google_id = ?", googleID).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}
