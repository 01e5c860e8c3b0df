package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"bookden/internal/httpapi/models"
)

type FavoriteRepository interface {
	// Create inserts a membership row. A duplicate-key error from the
	// (user_id, book_id) unique index is returned as-is so the service can
	// treat it as "already present" rather than a failure.
	Create(ctx context.Context, favorite *models.Favorite) error
	Exists(ctx context.Context, userID, bookID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.Favorite, error)
	DeleteByBook(ctx context.Context, userID, bookID string) (bool, error)
	UpdateNotes(ctx context.Context, userID, bookID, notes string) (*models.Favorite, error)
}

type favoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Create(ctx context.Context, favorite *models.Favorite) error {
	return r.db.WithContext(ctx).Create(favorite).Error
}

func (r *favoriteRepository) Exists(ctx context.Context, userID, bookID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *favoriteRepository) ListByUser(ctx context.Context, userID string) ([]models.Favorite, error) {
	var favorites []models.Favorite

	if err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favorites).Error; err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	return favorites, nil
}

func (r *favoriteRepository) DeleteByBook(ctx context.Context, userID, bookID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&models.Favorite{})

	if result.Error != nil {
		return false, fmt.Errorf("remove favorite: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *favoriteRepository) UpdateNotes(ctx context.Context, userID, bookID, notes string) (*models.Favorite, error) {
	var favorite models.Favorite
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&favorite).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Model(&favorite).
		Update("notes", notes).Error; err != nil {
		return nil, fmt.Errorf("update notes: %w", err)
	}

	return &favorite, nil
}
